package listing_test

import (
	"fmt"

	"github.com/frahmantamala/admin-console/internal/listing"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type member struct {
	Name   string
	Email  string
	Status string
}

func (m member) SearchText() []string { return []string{m.Name, m.Email} }
func (m member) StatusValue() string  { return m.Status }

func members(n int, approved map[int]bool) []member {
	out := make([]member, n)
	for i := range out {
		status := "Pending"
		if approved[i] {
			status = "Approved"
		}
		out[i] = member{Name: fmt.Sprintf("User %02d", i), Email: fmt.Sprintf("user%02d@example.com", i), Status: status}
	}
	return out
}

var _ = Describe("Filter and Paginate", func() {
	It("should show 3 approved users on page 1 of 1 out of 12", func() {
		view := listing.NewView[member](10, 100)
		view.SetStatus("Approved")

		w := view.Apply(members(12, map[int]bool{1: true, 5: true, 9: true}))
		Expect(w.Total).To(Equal(3))
		Expect(w.Items).To(HaveLen(3))
		Expect(w.Page).To(Equal(1))
		Expect(w.PageCount).To(Equal(1))
	})

	It("should require both the search and the status predicate", func() {
		records := []member{
			{Name: "Alice", Email: "alice@acme.io", Status: "Approved"},
			{Name: "Bob", Email: "bob@ACME.io", Status: "Pending"},
			{Name: "Carol", Email: "carol@other.io", Status: "Approved"},
		}

		Expect(listing.Filter(records, "acme", "Approved")).To(Equal(records[:1]))
		Expect(listing.Filter(records, "ACME", listing.StatusAll)).To(Equal(records[:2]))
		Expect(listing.Filter(records, "", listing.StatusAll)).To(Equal(records))
		Expect(listing.Filter(records, "", "Rejected")).To(BeEmpty())
	})

	It("should match the search term as typed, spaces included", func() {
		records := []member{
			{Name: "Ann Lee", Email: "ann@acme.io"},
			{Name: "Bob", Email: "bob@acme.io"},
		}

		Expect(listing.Filter(records, " ", listing.StatusAll)).To(Equal(records[:1]))
		Expect(listing.Filter(records, " bob", listing.StatusAll)).To(BeEmpty())
	})

	It("should preserve collection order", func() {
		records := []member{{Name: "Zed"}, {Name: "Amy"}, {Name: "Max"}}
		Expect(listing.Filter(records, "", listing.StatusAll)).To(Equal(records))
	})

	It("should bound every page window by ceil(n/p)", func() {
		for n := 0; n <= 23; n++ {
			matched := members(n, nil)
			for p := 1; p <= 7; p++ {
				pageCount := (n + p - 1) / p
				Expect(listing.PageCount(n, p)).To(Equal(pageCount))
				for k := 1; k <= pageCount; k++ {
					w := listing.Paginate(matched, k, p)
					start := (k - 1) * p
					end := min(k*p, n)
					Expect(w.Items).To(Equal(matched[start:end]))
				}
			}
		}
	})

	It("should clamp out-of-range pages", func() {
		matched := members(5, nil)
		Expect(listing.Paginate(matched, 9, 2).Page).To(Equal(3))
		Expect(listing.Paginate(matched, 0, 2).Page).To(Equal(1))
		Expect(listing.Paginate([]member{}, 4, 10).Page).To(Equal(1))
		Expect(listing.Paginate([]member{}, 4, 10).Items).To(BeEmpty())
	})

	Describe("View", func() {
		var view *listing.View[member]

		BeforeEach(func() {
			view = listing.NewView[member](2, 5)
		})

		It("should reset to page 1 when search or status changes", func() {
			records := members(10, nil)
			view.SetPage(4)
			Expect(view.Apply(records).Page).To(Equal(4))

			view.SetSearch("")
			Expect(view.State().Page).To(Equal(1))

			view.SetPage(3)
			view.SetStatus(listing.StatusAll)
			Expect(view.State().Page).To(Equal(1))
		})

		It("should reset to page 1 and cap the page size", func() {
			view.SetPage(3)
			view.SetPageSize(50)
			Expect(view.State()).To(Equal(listing.ViewState{Status: listing.StatusAll, Page: 1, PageSize: 5}))
		})

		It("should clamp a page left empty by a filter shrink", func() {
			records := members(10, map[int]bool{0: true})
			view.SetPage(5)
			Expect(view.Apply(records).Page).To(Equal(5))

			records = records[:3]
			w := view.Apply(records)
			Expect(w.Page).To(Equal(2))
			Expect(w.Items).To(HaveLen(1))
			Expect(view.State().Page).To(Equal(2))
		})

		It("should step through pages without going below 1", func() {
			view.Prev()
			Expect(view.State().Page).To(Equal(1))
			view.Next()
			view.Next()
			Expect(view.Apply(members(3, nil)).Page).To(Equal(2))
		})
	})
})
