package user

// CreateUserRequest is the body of POST /users/. The backend stores the
// display name as first_name.
type CreateUserRequest struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	Phone       string      `json:"phone"`
	Role        interface{} `json:"role,omitempty"`
	Company     interface{} `json:"company"`
	Location    interface{} `json:"location"`
	Designation interface{} `json:"designation"`
	Shop        interface{} `json:"shop,omitempty"`
}

// UpdateUserRequest is the body of PUT /users/{id}/. created_at is echoed
// back from the record being edited.
type UpdateUserRequest struct {
	Username    string      `json:"username"`
	Name        string      `json:"name"`
	FirstName   string      `json:"first_name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Role        interface{} `json:"role"`
	Company     interface{} `json:"company"`
	Location    interface{} `json:"location"`
	Designation interface{} `json:"designation"`
	Shop        interface{} `json:"shop"`
	Status      string      `json:"status"`
	Steps       int         `json:"steps"`
	CreatedAt   string      `json:"created_at,omitempty"`
}
