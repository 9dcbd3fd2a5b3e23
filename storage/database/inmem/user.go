package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) emailTaken(email string, excludedIDs ...int) bool {
	for _, usr := range repo.db.users.rows {
		if usr.Email == email && !containsInt(excludedIDs, usr.ID) {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make([]int, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		ids = append(ids, u.ID)
	}
	if repo.emailTaken(email, ids...) {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if len(usr.PasswordHash) == 0 {
		return user.User{}, core.ErrMissingValue
	}
	if repo.emailTaken(usr.Email) {
		return user.User{}, core.ErrDuplicateRecord
	}
	usr.ID = repo.db.users.nextPK()
	repo.db.users.put(usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := repo.db.users.list(func(usr *user.User) bool {
		if filter == nil {
			return true
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(usr.Name), filter.Search) &&
			!strings.Contains(strings.ToLower(usr.Email), filter.Search) {
			return false
		}
		if len(filter.Roles) > 0 && !containsString(filter.Roles, usr.Role) {
			return false
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			return false
		}
		return true
	})
	sortUsers(users, ordering)
	return users, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users.rows[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users.rows {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users.rows[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if len(usr.PasswordHash) == 0 {
		return user.User{}, core.ErrMissingValue
	}
	if repo.emailTaken(usr.Email, usr.ID) {
		return user.User{}, core.ErrDuplicateRecord
	}
	usr.UpdatedAt = time.Now().UTC()
	repo.db.users.put(usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) CountUsers(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.users.rows), nil
}

func sortUsers(users []user.User, ordering []core.DBOrdering) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "id":
				cmp = compareInts(a.ID, b.ID)
			case "name":
				cmp = strings.Compare(a.Name, b.Name)
			case "email":
				cmp = strings.Compare(a.Email, b.Email)
			case "role":
				cmp = strings.Compare(a.Role, b.Role)
			case "createdAt":
				cmp = compareTimes(a.CreatedAt, b.CreatedAt)
			case "lastLogin":
				cmp = compareTimes(a.LastLogin.Time, b.LastLogin.Time)
			}
			if cmp != 0 {
				if ord.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return false
	})
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
