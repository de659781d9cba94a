package user

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
)

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

var Statuses = []string{StatusPending, StatusApproved, StatusRejected}

// User is the normalized record. Foreign keys are resolved to display strings
// once, when the record is decoded; the *Value fields keep what a select
// bound to the same key should hold.
type User struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Role             string `json:"role"`
	Company          string `json:"company"`
	Location         string `json:"location"`
	Designation      string `json:"designation"`
	Shop             string `json:"shop,omitempty"`
	Status           string `json:"status"`
	Steps            int    `json:"steps"`
	CreatedAt        string `json:"created_at,omitempty"`
	RoleValue        string `json:"-"`
	CompanyValue     string `json:"-"`
	LocationValue    string `json:"-"`
	DesignationValue string `json:"-"`
	ShopValue        string `json:"-"`
}

// userWire is every field the backend may place either on the user or in
// its nested profile object.
type userWire struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Role        lookup.Ref `json:"role"`
	Company     lookup.Ref `json:"company"`
	Location    lookup.Ref `json:"location"`
	Designation lookup.Ref `json:"designation"`
	Shop        lookup.Ref `json:"shop"`
	Status      string     `json:"status"`
	Steps       *int       `json:"steps"`
	CreatedAt   string     `json:"created_at"`
}

// Decode accepts the flat shape, the nested profile shape, and first_name in
// place of name. Values on the user win over values in the profile.
func Decode(data []byte) (User, error) {
	var raw struct {
		userWire
		ID      int64     `json:"id"`
		Profile *userWire `json:"profile"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return User{}, err
	}

	profile := userWire{}
	if raw.Profile != nil {
		profile = *raw.Profile
	}
	flat := raw.userWire

	steps := 0
	switch {
	case flat.Steps != nil:
		steps = *flat.Steps
	case profile.Steps != nil:
		steps = *profile.Steps
	}
	if steps < 0 {
		steps = 0
	}

	role := pickRef(flat.Role, profile.Role)
	company := pickRef(flat.Company, profile.Company)
	location := pickRef(flat.Location, profile.Location)
	designation := pickRef(flat.Designation, profile.Designation)
	shop := pickRef(flat.Shop, profile.Shop)

	u := User{
		ID:               raw.ID,
		Username:         pick(flat.Username, profile.Username),
		Name:             pick(flat.Name, flat.FirstName, profile.Name, profile.FirstName),
		Email:            pick(flat.Email, profile.Email),
		Phone:            pick(flat.Phone, profile.Phone),
		Role:             role.Display(),
		Company:          company.Display(),
		Location:         location.Display(),
		Designation:      designation.Display(),
		Shop:             shop.Display(),
		Status:           NormalizeStatus(pick(flat.Status, profile.Status)),
		Steps:            steps,
		CreatedAt:        pick(flat.CreatedAt, profile.CreatedAt),
		RoleValue:        role.FormValue(),
		CompanyValue:     company.FormValue(),
		LocationValue:    location.FormValue(),
		DesignationValue: designation.FormValue(),
		ShopValue:        shop.FormValue(),
	}
	return u, nil
}

func (u *User) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*u = decoded
	return nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func pickRef(refs ...lookup.Ref) lookup.Ref {
	for _, r := range refs {
		if r.Display() != "" {
			return r
		}
	}
	return lookup.Ref{}
}

// NormalizeStatus maps empty or unknown statuses to Pending.
func NormalizeStatus(status string) string {
	for _, s := range Statuses {
		if strings.EqualFold(status, s) {
			return s
		}
	}
	return StatusPending
}

func (u User) RecordID() int64 { return u.ID }

func (u User) SearchText() []string { return []string{u.Name, u.Email} }

func (u User) StatusValue() string { return u.Status }

// DisplayName is the name, or the username when no name is set.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Initials takes the first letter of up to two words, upper-cased; "?" when
// there is no name.
func Initials(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
		count++
		if count == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// Badge is the style class for a status pill.
func Badge(status string) string {
	switch status {
	case StatusApproved:
		return "badge-success"
	case StatusRejected:
		return "badge-danger"
	default:
		return "badge-warning"
	}
}

// CreatedTime parses CreatedAt; ok is false when it is missing or malformed.
func (u User) CreatedTime() (time.Time, bool) {
	if u.CreatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, u.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MarshalJSON adds the derived display fields rows are rendered with.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(struct {
		plain
		DisplayName string `json:"display_name"`
		Initials    string `json:"initials"`
		Badge       string `json:"badge"`
	}{
		plain:       plain(u),
		DisplayName: u.DisplayName(),
		Initials:    Initials(u.DisplayName()),
		Badge:       Badge(u.Status),
	})
}
