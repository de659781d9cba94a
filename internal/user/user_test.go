package user_test

import (
	"encoding/json"

	"github.com/frahmantamala/admin-console/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("User decoding", func() {
	It("should decode the flat shape with first_name as the name", func() {
		u, err := user.Decode([]byte(`{
			"id": 3, "username": "jdoe", "first_name": "Jane Doe", "email": "jane@acme.io",
			"role": {"id": 2, "name": "Editor"}, "company": "Acme Ltd", "location": 4,
			"designation": {"id": 9, "title": "Developer"}, "status": "approved", "steps": 2,
			"created_at": "2024-03-01T10:00:00Z"
		}`))
		Expect(err).NotTo(HaveOccurred())

		Expect(u.Name).To(Equal("Jane Doe"))
		Expect(u.Role).To(Equal("Editor"))
		Expect(u.RoleValue).To(Equal("2"))
		Expect(u.Company).To(Equal("Acme Ltd"))
		Expect(u.Location).To(Equal("4"))
		Expect(u.Designation).To(Equal("Developer"))
		Expect(u.Status).To(Equal(user.StatusApproved))
		Expect(u.Steps).To(Equal(2))
	})

	It("should read missing fields from the nested profile", func() {
		u, err := user.Decode([]byte(`{
			"id": 5, "username": "mk", "email": "",
			"profile": {"first_name": "Max K", "email": "max@acme.io", "phone": "555", "company": "Optitax Inc", "steps": -4}
		}`))
		Expect(err).NotTo(HaveOccurred())

		Expect(u.Name).To(Equal("Max K"))
		Expect(u.Email).To(Equal("max@acme.io"))
		Expect(u.Phone).To(Equal("555"))
		Expect(u.Company).To(Equal("Optitax Inc"))
		Expect(u.Status).To(Equal(user.StatusPending))
		Expect(u.Steps).To(BeZero())
	})

	It("should normalize every element of a list response", func() {
		var users []user.User
		Expect(json.Unmarshal([]byte(`[{"id":1,"username":"a"},{"id":2,"name":"B","status":"Rejected"}]`), &users)).To(Succeed())
		Expect(users).To(HaveLen(2))
		Expect(users[0].DisplayName()).To(Equal("a"))
		Expect(users[1].Status).To(Equal(user.StatusRejected))
	})

	It("should render derived display fields", func() {
		raw, err := json.Marshal(user.User{Name: "jane van doe", Status: user.StatusRejected})
		Expect(err).NotTo(HaveOccurred())

		var out map[string]interface{}
		Expect(json.Unmarshal(raw, &out)).To(Succeed())
		Expect(out).To(HaveKeyWithValue("initials", "JV"))
		Expect(out).To(HaveKeyWithValue("badge", "badge-danger"))
		Expect(out).To(HaveKeyWithValue("display_name", "jane van doe"))
		Expect(out).NotTo(HaveKey("RoleValue"))
	})

	It("should fall back to a question mark for blank initials", func() {
		Expect(user.Initials("  ")).To(Equal("?"))
		Expect(user.Badge("")).To(Equal("badge-warning"))
	})
})

var _ = Describe("Form", func() {
	It("should require the create fields", func() {
		appErr := user.NewForm().Validate(true)
		Expect(appErr).NotTo(BeNil())
		Expect(appErr.FieldErrors()).To(HaveKey("username"))
		Expect(appErr.FieldErrors()).To(HaveKey("name"))
		Expect(appErr.FieldErrors()).To(HaveKey("email"))
		Expect(appErr.FieldErrors()).To(HaveKey("company"))
		Expect(appErr.FieldErrors()).To(HaveKey("location"))
		Expect(appErr.FieldErrors()).To(HaveKey("designation"))
		Expect(appErr.FieldErrors()).NotTo(HaveKey("shop"))
	})

	It("should only require name and username when editing", func() {
		form := user.FormFrom(user.User{Username: "jdoe", Name: "Jane"})
		Expect(form.Validate(false)).To(BeNil())
		Expect(form.Status).To(Equal(user.StatusPending))
	})

	It("should reject unknown statuses and negative steps", func() {
		form := user.FormFrom(user.User{Username: "jdoe", Name: "Jane"})
		Expect(form.Set("status", "Archived")).To(Succeed())
		Expect(form.Set("steps", "-1")).To(Succeed())

		fields := form.Validate(false).FieldErrors()
		Expect(fields).To(HaveKey("status"))
		Expect(fields).To(HaveKey("steps"))
	})

	It("should reject non-numeric steps and unknown fields", func() {
		form := user.NewForm()
		Expect(form.Set("steps", "two")).To(HaveOccurred())
		Expect(form.Set("salary", "1")).To(HaveOccurred())
	})

	It("should map name to first_name and echo created_at on update", func() {
		original := user.User{ID: 3, Username: "jdoe", Name: "Jane", CreatedAt: "2024-03-01T10:00:00Z", CompanyValue: "4"}
		form := user.FormFrom(original)
		Expect(form.Set("name", "Jane Doe")).To(Succeed())

		req := form.UpdateRequest(original)
		Expect(req.FirstName).To(Equal("Jane Doe"))
		Expect(req.Name).To(Equal("Jane Doe"))
		Expect(req.CreatedAt).To(Equal("2024-03-01T10:00:00Z"))
		Expect(req.Company).To(Equal(int64(4)))

		create := form.CreateRequest()
		Expect(create.FirstName).To(Equal("Jane Doe"))
	})
})
