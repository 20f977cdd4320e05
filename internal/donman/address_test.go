package donman

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    Address
	}{
		{
			name:    "full address",
			address: "5 Smith St Mornington VIC 3931",
			want:    Address{Street: "5 Smith St", Suburb: "Mornington", State: "VIC", Postcode: "3931"},
		},
		{
			name:    "state without postcode",
			address: "12 Long Road Bendigo VIC",
			want:    Address{Street: "12 Long Road", Suburb: "Bendigo", State: "VIC"},
		},
		{
			name:    "postcode without state",
			address: "8 Ocean Pde Torquay 3228",
			want:    Address{Street: "8 Ocean Pde", Suburb: "Torquay", Postcode: "3228"},
		},
		{
			name:    "suffix with trailing period",
			address: "3 High St. Kyneton VIC 3444",
			want:    Address{Street: "3 High St.", Suburb: "Kyneton", State: "VIC", Postcode: "3444"},
		},
		{
			name:    "no recognisable suffix keeps everything in street",
			address: "Lot 12 Nowhereville",
			want:    Address{Street: "Lot 12 Nowhereville"},
		},
		{
			name:    "multi word suburb",
			address: "1 Main St Upper Ferntree Gully VIC 3156",
			want:    Address{Street: "1 Main St", Suburb: "Upper Ferntree Gully", State: "VIC", Postcode: "3156"},
		},
		{
			name:    "lowercase state still recognised",
			address: "7 Mill Lane Hobart tas 7000",
			want:    Address{Street: "7 Mill Lane", Suburb: "Hobart", State: "TAS", Postcode: "7000"},
		},
		{
			name:    "five digit tail is not a postcode",
			address: "4 Park Ave Springfield 12345",
			want:    Address{Street: "4 Park Ave", Suburb: "Springfield 12345"},
		},
		{
			name:    "empty input",
			address: "",
			want:    Address{},
		},
		{
			name:    "whitespace only",
			address: "   ",
			want:    Address{},
		},
		{
			name:    "suffix is last addressable token",
			address: "22 Station St VIC 3000",
			want:    Address{Street: "22 Station St", State: "VIC", Postcode: "3000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAddress(tt.address)
			if got != tt.want {
				t.Errorf("ParseAddress(%q) = %+v, want %+v", tt.address, got, tt.want)
			}
		})
	}
}
