package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"

	"dairy-backend-go/internal/models"
)

const billingsCollection = "billings"

type firestoreBillingRepository struct {
	client *firestore.Client
}

// NewFirestoreBillingRepository creates a Firestore-backed BillingRepository.
func NewFirestoreBillingRepository(client *firestore.Client) BillingRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for BillingRepository.")
	}
	return &firestoreBillingRepository{client: client}
}

func setBillingID(b *models.Billing, id string) { b.ID = id }

func (r *firestoreBillingRepository) Create(ctx context.Context, b *models.Billing) (string, error) {
	docRef := r.client.Collection(billingsCollection).NewDoc()
	b.ID = docRef.ID
	if _, err := docRef.Create(ctx, b); err != nil {
		return "", fmt.Errorf("failed to create bill: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreBillingRepository) GetByID(ctx context.Context, billID string) (*models.Billing, error) {
	if billID == "" {
		return nil, fmt.Errorf("empty bill ID: %w", ErrNotFound)
	}
	return getDoc(ctx, r.client.Collection(billingsCollection).Doc(billID), setBillingID)
}

// List returns bills matching filter, newest first.
func (r *firestoreBillingRepository) List(ctx context.Context, filter BillingFilter) ([]*models.Billing, error) {
	q := r.client.Collection(billingsCollection).Query
	if filter.ConsumerID != "" {
		q = q.Where("consumerId", "==", filter.ConsumerID)
	}
	return collect(ctx, q.OrderBy("createdAt", firestore.Desc), setBillingID)
}

func (r *firestoreBillingRepository) Update(ctx context.Context, b *models.Billing) error {
	if b.ID == "" {
		return errors.New("bill ID cannot be empty for Update operation")
	}
	if _, err := r.client.Collection(billingsCollection).Doc(b.ID).Set(ctx, b); err != nil {
		return fmt.Errorf("failed to update bill with ID '%s': %w", b.ID, err)
	}
	return nil
}

func (r *firestoreBillingRepository) CountByConsumer(ctx context.Context, consumerID string) (int, error) {
	return count(ctx, r.client.Collection(billingsCollection).Where("consumerId", "==", consumerID))
}
