package db

import (
	"errors"
	"fmt"

	"dairy-backend-go/internal/config"
)

// Open returns the repository set for the configured storage driver.
// clients may be nil when the driver is memory.
func Open(appConfig *config.Config, clients *FirebaseClients) (Repositories, error) {
	switch appConfig.StorageDriver {
	case config.StorageMemory:
		return NewMemoryRepositories(), nil
	case config.StorageFirestore:
		if clients == nil || clients.Firestore == nil {
			return Repositories{}, errors.New("firestore storage selected but Firestore client is not initialized")
		}
		return Repositories{
			Users:         NewFirestoreUserRepository(clients.Firestore),
			Subscriptions: NewFirestoreSubscriptionRepository(clients.Firestore),
			Deliveries:    NewFirestoreDeliveryRepository(clients.Firestore),
			Billings:      NewFirestoreBillingRepository(clients.Firestore),
		}, nil
	default:
		return Repositories{}, fmt.Errorf("unknown storage driver %q", appConfig.StorageDriver)
	}
}
