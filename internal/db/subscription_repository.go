package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"

	"dairy-backend-go/internal/models"
)

const subscriptionsCollection = "subscriptions"

type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates a Firestore-backed SubscriptionRepository.
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SubscriptionRepository.")
	}
	return &firestoreSubscriptionRepository{client: client}
}

func setSubscriptionID(s *models.Subscription, id string) { s.ID = id }

func (r *firestoreSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (string, error) {
	docRef := r.client.Collection(subscriptionsCollection).NewDoc()
	sub.ID = docRef.ID
	if _, err := docRef.Create(ctx, sub); err != nil {
		return "", fmt.Errorf("failed to create subscription: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, subID string) (*models.Subscription, error) {
	if subID == "" {
		return nil, fmt.Errorf("empty subscription ID: %w", ErrNotFound)
	}
	return getDoc(ctx, r.client.Collection(subscriptionsCollection).Doc(subID), setSubscriptionID)
}

func (r *firestoreSubscriptionRepository) ListActive(ctx context.Context) ([]*models.Subscription, error) {
	q := r.client.Collection(subscriptionsCollection).Where("isActive", "==", true)
	return collect(ctx, q, setSubscriptionID)
}

func (r *firestoreSubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		return errors.New("subscription ID cannot be empty for Update operation")
	}
	if _, err := r.client.Collection(subscriptionsCollection).Doc(sub.ID).Set(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription with ID '%s': %w", sub.ID, err)
	}
	return nil
}
