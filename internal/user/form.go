package user

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
	"github.com/frahmantamala/admin-console/internal/core/common/validation"
)

type Form struct {
	Username    string
	Name        string
	Email       string
	Phone       string
	Role        string
	Company     string
	Location    string
	Designation string
	Shop        string
	Status      string
	Steps       int
}

func NewForm() *Form {
	return &Form{Status: StatusPending}
}

// FormFrom prefills every field from u; absent values stay "" or 0, and
// status falls back to Pending.
func FormFrom(u User) *Form {
	return &Form{
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.RoleValue,
		Company:     u.CompanyValue,
		Location:    u.LocationValue,
		Designation: u.DesignationValue,
		Shop:        u.ShopValue,
		Status:      NormalizeStatus(u.Status),
		Steps:       u.Steps,
	}
}

func (f *Form) Set(field, value string) error {
	switch field {
	case "username":
		f.Username = value
	case "name":
		f.Name = value
	case "email":
		f.Email = value
	case "phone":
		f.Phone = value
	case "role":
		f.Role = value
	case "company":
		f.Company = value
	case "location":
		f.Location = value
	case "designation":
		f.Designation = value
	case "shop":
		f.Shop = value
	case "status":
		f.Status = value
	case "steps":
		if strings.TrimSpace(value) == "" {
			f.Steps = 0
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return internal.NewValidationFieldError(field, "Steps must be a whole number", internal.ErrCodeInvalidNumber)
		}
		f.Steps = n
	default:
		return internal.NewValidationFieldError(field, fmt.Sprintf("unknown field %q", field), internal.ErrCodeUnknownField)
	}
	return nil
}

func (f *Form) Validate(creating bool) *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", "Username", f.Username).Required().MaxLength(150)
	v.Field("name", "Name", f.Name).Required().MaxLength(150)
	if creating {
		v.Field("email", "Email", f.Email).Required().Email()
		v.Field("company", "Company", f.Company).Required()
		v.Field("location", "Location", f.Location).Required()
		v.Field("designation", "Designation", f.Designation).Required()
	} else {
		v.Field("email", "Email", f.Email).Email()
		v.Field("status", "Status", f.Status).OneOf(Statuses...)
		v.Field("steps", "Steps", f.Steps).MinInt(0)
	}
	return v.Validate()
}

func (f *Form) Values() map[string]interface{} {
	return map[string]interface{}{
		"username":    f.Username,
		"name":        f.Name,
		"email":       f.Email,
		"phone":       f.Phone,
		"role":        f.Role,
		"company":     f.Company,
		"location":    f.Location,
		"designation": f.Designation,
		"shop":        f.Shop,
		"status":      f.Status,
		"steps":       f.Steps,
	}
}

func (f *Form) CreateRequest() CreateUserRequest {
	return CreateUserRequest{
		Username:    strings.TrimSpace(f.Username),
		Email:       strings.TrimSpace(f.Email),
		FirstName:   strings.TrimSpace(f.Name),
		Phone:       strings.TrimSpace(f.Phone),
		Role:        lookup.PayloadValue(f.Role),
		Company:     lookup.PayloadValue(f.Company),
		Location:    lookup.PayloadValue(f.Location),
		Designation: lookup.PayloadValue(f.Designation),
		Shop:        lookup.PayloadValue(f.Shop),
	}
}

func (f *Form) UpdateRequest(original User) UpdateUserRequest {
	name := strings.TrimSpace(f.Name)
	return UpdateUserRequest{
		Username:    strings.TrimSpace(f.Username),
		Name:        name,
		FirstName:   name,
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		Role:        lookup.PayloadValue(f.Role),
		Company:     lookup.PayloadValue(f.Company),
		Location:    lookup.PayloadValue(f.Location),
		Designation: lookup.PayloadValue(f.Designation),
		Shop:        lookup.PayloadValue(f.Shop),
		Status:      NormalizeStatus(f.Status),
		Steps:       f.Steps,
		CreatedAt:   original.CreatedAt,
	}
}
