package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"carvia/database"
	"carvia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoBookingRepo implements BookingRepository backed by the "bookings"
// collection.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{coll: database.Collection("bookings")}
}

// Create inserts a new booking document.
func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := repo.coll.InsertOne(ctxWithTimeout, booking)
	if err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctxWithTimeout, bson.M{"id": id}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", id, err)
	}
	return &booking, nil
}

// ListByCustomer returns all bookings made by the given customer, newest first.
func (repo *MongoBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return repo.list(ctx, bson.M{"customer_id": customerID})
}

// ListByOwner returns all bookings against the given owner's cars, newest first.
func (repo *MongoBookingRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return repo.list(ctx, bson.M{"owner_id": ownerID})
}

func (repo *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.coll.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus performs a compare-and-swap on the booking's status: the
// filter matches both id and the expected current status, so a concurrent
// transition makes the update match nothing.
func (repo *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus, note string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{
		"status":      to,
		"status_note": note,
		"updated_at":  time.Now(),
	}}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return fmt.Errorf("error updating booking %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing booking from a lost race.
		count, err := repo.coll.CountDocuments(ctxWithTimeout, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("error checking booking %s: %w", id, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStatusChanged
	}
	return nil
}

// UpdatePaymentStatus sets the booking's payment status.
func (repo *MongoBookingRepo) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{
		"payment_status": status,
		"updated_at":     time.Now(),
	}}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return fmt.Errorf("error updating booking %s payment status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastKnownLocation writes the latest position. The filter includes the
// ongoing status so a sample racing a trip-completion transition is dropped
// by the store rather than written to a completed booking.
func (repo *MongoBookingRepo) UpdateLastKnownLocation(ctx context.Context, id string, point models.GeoPoint) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.BookingOngoing}
	update := bson.M{"$set": bson.M{
		"last_known_location": point,
		"updated_at":          time.Now(),
	}}
	if _, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update); err != nil {
		return fmt.Errorf("error updating booking %s location: %w", id, err)
	}
	return nil
}
