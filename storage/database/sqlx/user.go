package sqlxrepos

import (
	"context"
	"time"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/user"
	"github.com/Iamayomi/academic-management-platform/storage/database"
)

const userColumns = "id, name, email, role, is_active, password_hash, created_at, updated_at, last_login"

var userOrderColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"isActive":  "is_active",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"lastLogin": "last_login",
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{exec: exec}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	var where whereClause
	where.add("email = ?", email)
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		where.add("id NOT IN (?)", ids)
	}

	var count int
	if err := getQuery(ctx, repo.exec, &count, "SELECT COUNT(*) FROM users"+where.String(), where.args...); err != nil {
		return database.TrapError(err, nil, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.exec.Rebind(`INSERT INTO users (name, email, role, is_active, password_hash, created_at, updated_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := repo.exec.GetContext(ctx, &usr.ID, q,
		usr.Name, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), usr.LastLogin)
	if err != nil {
		return user.User{}, database.TrapError(err, nil, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var where whereClause
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where.add("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", val, val)
		}
		if len(filter.Roles) > 0 {
			where.addIn("role", filter.Roles, false)
		}
		if filter.IsActive != nil {
			where.add("is_active = ?", *filter.IsActive)
		}
	}

	q := "SELECT " + userColumns + " FROM users" + where.String() +
		" ORDER BY " + core.OrderByClause(ordering, userOrderColumns, "id ASC")

	users := make([]user.User, 0)
	if err := selectQuery(ctx, repo.exec, &users, q, where.args...); err != nil {
		return nil, database.TrapError(err, nil, "querying users")
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var usr user.User
	q := repo.exec.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := repo.exec.GetContext(ctx, &usr, q, id); err != nil {
		return user.User{}, database.TrapError(err, user.ErrNotFound, "finding user by ID")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	q := repo.exec.Rebind("SELECT " + userColumns + " FROM users WHERE email = ?")
	if err := repo.exec.GetContext(ctx, &usr, q, email); err != nil {
		return user.User{}, database.TrapError(err, user.ErrNotFound, "finding user by email")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()
	err := execAffecting(ctx, repo.exec, user.ErrNotFound,
		`UPDATE users SET name = ?, email = ?, role = ?, is_active = ?, password_hash = ?, updated_at = ?, last_login = ?
		WHERE id = ?`,
		usr.Name, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash, usr.UpdatedAt, usr.LastLogin, usr.ID)
	if err != nil {
		return user.User{}, database.TrapError(err, user.ErrNotFound, "updating user")
	}
	return usr, nil
}

func (repo *userRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := repo.exec.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, database.TrapError(err, nil, "counting users")
	}
	return count, nil
}
