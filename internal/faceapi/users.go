package faceapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-enroll/internal/constants"
)

// ListUsers returns all enrolled users with display fields attached
func (c *Client) ListUsers(ctx context.Context) ([]UserRecord, error) {
	result, err := doJSON[usersResponse](ctx, c, "list users", http.MethodGet, nil, "api", "users")
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &ServiceError{Op: "list users", StatusCode: http.StatusOK, Message: "Failed to load users"}
	}

	users := make([]UserRecord, len(result.Users))
	for i, u := range result.Users {
		users[i] = WithDisplayFields(u)
	}
	return users, nil
}

// GetUser returns a single user by id
func (c *Client) GetUser(ctx context.Context, id int64) (*UserRecord, error) {
	result, err := doJSON[userResponse](ctx, c, "get user", http.MethodGet, nil, "api", "users", strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &ServiceError{Op: "get user", StatusCode: http.StatusOK, Message: messageOr(result.Message, "Failed to load user")}
	}
	user := WithDisplayFields(result.User)
	return &user, nil
}

// DeleteUser removes an enrolled user
func (c *Client) DeleteUser(ctx context.Context, id int64) (*Confirmation, error) {
	result, err := doJSON[Confirmation](ctx, c, "delete user", http.MethodDelete, nil, "api", "user", strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &ServiceError{Op: "delete user", StatusCode: http.StatusOK, Message: messageOr(result.Message, "Failed to delete user")}
	}
	return result, nil
}

// UpdateUserStatus sets a user active or inactive
func (c *Client) UpdateUserStatus(ctx context.Context, id int64, status string) (*Confirmation, error) {
	if status != constants.StatusActive && status != constants.StatusInactive {
		return nil, fmt.Errorf("update user status: invalid status %q", status)
	}
	body := map[string]string{"status": status}
	result, err := doJSON[Confirmation](ctx, c, "update user status", http.MethodPatch, body,
		"api", "users", strconv.FormatInt(id, 10), "status")
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &ServiceError{Op: "update user status", StatusCode: http.StatusOK, Message: messageOr(result.Message, "Failed to update user status")}
	}
	return result, nil
}

// WithDisplayFields attaches the client-side display fields to a record.
// It is pure: the same input always yields the same output. Status is a
// display value and is always active, whatever the backend sent.
func WithDisplayFields(u UserRecord) UserRecord {
	u.EmployeeID = strconv.FormatInt(u.ID, 10)
	date, _, _ := strings.Cut(u.CreatedAt, "T")
	u.EnrollmentDate = date
	u.Status = constants.StatusActive
	return u
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
