package donman

// Layout maps DONMAN export columns to their 0-based positions. The legacy
// export has a fixed column order; keeping it as a value rather than package
// constants leaves room for other export variants without touching the parser.
type Layout struct {
	DonmanID      int
	FirstName     int
	MailchimpName int
	Surname       int
	PayType       int
	Status        int
	Type          int
	Rights        int
	ConnectedName int // unused on import
	Category      int // "Type2" in the legacy export
	RenewalStatus int
	DateLastPaid  int
	MonthLastPaid int // unused on import
	Notes         int
	UpdateEpas    int
	OrgFoundation int
	Title         int
	Email         int
	Address       int
	Mobile        int

	// MinColumns is the smallest field count a row may tokenize to.
	MinColumns int
}

// DefaultLayout is the column order of the standard DONMAN export.
func DefaultLayout() Layout {
	return Layout{
		DonmanID:      0,
		FirstName:     1,
		MailchimpName: 2,
		Surname:       3,
		PayType:       4,
		Status:        5,
		Type:          6,
		Rights:        7,
		ConnectedName: 8,
		Category:      9,
		RenewalStatus: 10,
		DateLastPaid:  11,
		MonthLastPaid: 12,
		Notes:         13,
		UpdateEpas:    14,
		OrgFoundation: 15,
		Title:         16,
		Email:         17,
		Address:       18,
		Mobile:        19,
		MinColumns:    20,
	}
}
