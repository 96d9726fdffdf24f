package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"dairy-backend-go/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

func setUserID(u *models.User, id string) { u.ID = id }

// Create adds a new user document with an auto-generated ID and sets user.ID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) (string, error) {
	docRef := r.client.Collection(usersCollection).NewDoc()
	user.ID = docRef.ID
	if _, err := docRef.Create(ctx, user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user ID: %w", ErrNotFound)
	}
	return getDoc(ctx, r.client.Collection(usersCollection).Doc(userID), setUserID)
}

// GetByEmail looks the user up by normalized email.
func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	iter := r.client.Collection(usersCollection).
		Where("email", "==", NormalizeEmail(email)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("user with email '%s': %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", doc.Ref.ID, err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

// FindByRole pages through users of one role, newest first.
// Firestore has no substring operator, so a non-empty search scans the role and filters here;
// without a search, paging and counting are pushed to the server.
func (r *firestoreUserRepository) FindByRole(ctx context.Context, role models.Role, filter UserFilter) ([]*models.User, int, error) {
	byRole := r.client.Collection(usersCollection).Where("role", "==", string(role))
	ordered := byRole.OrderBy("createdAt", firestore.Desc)

	if filter.Search == "" {
		total, err := count(ctx, byRole)
		if err != nil {
			return nil, 0, err
		}
		q := ordered.Offset(filter.Offset)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		users, err := collect(ctx, q, setUserID)
		if err != nil {
			return nil, 0, err
		}
		return users, total, nil
	}

	all, err := collect(ctx, ordered, setUserID)
	if err != nil {
		return nil, 0, err
	}
	matched := make([]*models.User, 0, len(all))
	for _, u := range all {
		if MatchesSearch(u, filter.Search) {
			matched = append(matched, u)
		}
	}
	return pageOf(matched, filter.Offset, filter.Limit), len(matched), nil
}

// Update overwrites the stored document with user.
func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	if _, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user); err != nil {
		return fmt.Errorf("failed to update user with ID '%s': %w", user.ID, err)
	}
	return nil
}

func (r *firestoreUserRepository) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("empty user ID: %w", ErrNotFound)
	}
	return deleteDoc(ctx, r.client.Collection(usersCollection).Doc(userID))
}
