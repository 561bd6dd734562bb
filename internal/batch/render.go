package batch

import (
	"fmt"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SizeColumn adds the size result under column.
func SizeColumn(column string) RenderFunc[string] {
	return func(row model.Record, size string) model.Record {
		row.Set(column, size)
		return row
	}
}

// ContactColumns adds Contact{i}_Name, Contact{i}_Role and
// Contact{i}_LinkedIn_URL for i in 1..slots, blank where no contact exists.
func ContactColumns(slots int) RenderFunc[[]model.Contact] {
	if slots <= 0 {
		slots = model.MaxContacts
	}
	return func(row model.Record, contacts []model.Contact) model.Record {
		for i := 0; i < slots; i++ {
			var c model.Contact
			if i < len(contacts) {
				c = contacts[i]
			}
			n := i + 1
			row.Set(fmt.Sprintf("Contact%d_Name", n), c.Name)
			row.Set(fmt.Sprintf("Contact%d_Role", n), c.Role)
			row.Set(fmt.Sprintf("Contact%d_LinkedIn_URL", n), c.URL)
		}
		return row
	}
}
