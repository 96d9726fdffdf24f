package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"

	"dairy-backend-go/internal/models"
)

const deliveriesCollection = "deliveries"

type firestoreDeliveryRepository struct {
	client *firestore.Client
}

// NewFirestoreDeliveryRepository creates a Firestore-backed DeliveryRepository.
func NewFirestoreDeliveryRepository(client *firestore.Client) DeliveryRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for DeliveryRepository.")
	}
	return &firestoreDeliveryRepository{client: client}
}

func setDeliveryID(d *models.Delivery, id string) { d.ID = id }

func (r *firestoreDeliveryRepository) Create(ctx context.Context, d *models.Delivery) (string, error) {
	docRef := r.client.Collection(deliveriesCollection).NewDoc()
	d.ID = docRef.ID
	if _, err := docRef.Create(ctx, d); err != nil {
		return "", fmt.Errorf("failed to create delivery: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreDeliveryRepository) GetByID(ctx context.Context, deliveryID string) (*models.Delivery, error) {
	if deliveryID == "" {
		return nil, fmt.Errorf("empty delivery ID: %w", ErrNotFound)
	}
	return getDoc(ctx, r.client.Collection(deliveriesCollection).Doc(deliveryID), setDeliveryID)
}

// List returns deliveries matching filter, newest first.
func (r *firestoreDeliveryRepository) List(ctx context.Context, filter DeliveryFilter) ([]*models.Delivery, error) {
	q := r.client.Collection(deliveriesCollection).Query
	if filter.DeliveryPersonID != "" {
		q = q.Where("deliveryPersonId", "==", filter.DeliveryPersonID)
	}
	if filter.ConsumerID != "" {
		q = q.Where("consumerId", "==", filter.ConsumerID)
	}
	return collect(ctx, q.OrderBy("createdAt", firestore.Desc), setDeliveryID)
}

func (r *firestoreDeliveryRepository) Update(ctx context.Context, d *models.Delivery) error {
	if d.ID == "" {
		return errors.New("delivery ID cannot be empty for Update operation")
	}
	if _, err := r.client.Collection(deliveriesCollection).Doc(d.ID).Set(ctx, d); err != nil {
		return fmt.Errorf("failed to update delivery with ID '%s': %w", d.ID, err)
	}
	return nil
}

func (r *firestoreDeliveryRepository) CountByConsumer(ctx context.Context, consumerID string) (int, error) {
	return count(ctx, r.client.Collection(deliveriesCollection).Where("consumerId", "==", consumerID))
}
