package edifact

// Reference qualifiers (1153) for party identifiers.
const (
	ReferenceVAT          = "VA"
	ReferenceGovernment   = "GN"
	ReferenceRegistration = "XA"
	ReferenceInvoice      = "IV"
)

// Communication channel qualifiers (3155).
const (
	ChannelMail  = "EM"
	ChannelPhone = "TE"
	ChannelFax   = "FX"
)

// Address is a party's identification plus its structured postal address.
// Name and Street hold up to five and four lines respectively.
type Address struct {
	ID         string   `yaml:"id"`
	Agency     string   `yaml:"agency"`
	Name       []string `yaml:"name"`
	Street     []string `yaml:"street"`
	City       string   `yaml:"city"`
	PostalCode string   `yaml:"postal_code"`
	Country    string   `yaml:"country"`
}

// IsZero reports whether no field of a is set.
func (a Address) IsZero() bool {
	return a.ID == "" && a.Agency == "" && len(a.Name) == 0 && len(a.Street) == 0 &&
		a.City == "" && a.PostalCode == "" && a.Country == ""
}

// NAD builds a name and address segment. Agency defaults to 9 (EAN) when an
// ID is present.
func NAD(qualifier string, a Address) Segment {
	agency := a.Agency
	if agency == "" && a.ID != "" {
		agency = "9"
	}
	return NewSegment("NAD",
		Value(qualifier),
		Composite{a.ID, "", agency},
		Value(""),
		Composite(limitLines(a.Name, 5)),
		Composite(limitLines(a.Street, 4)),
		Value(a.City),
		Value(""),
		Value(a.PostalCode),
		Value(a.Country),
	)
}

// VATReference builds RFF+VA.
func VATReference(number string) Segment {
	return RFF(ReferenceVAT, number)
}

// GovernmentReference builds RFF+GN.
func GovernmentReference(number string) Segment {
	return RFF(ReferenceGovernment, number)
}

// CompanyRegistration builds RFF+XA.
func CompanyRegistration(number string) Segment {
	return RFF(ReferenceRegistration, number)
}

// ContactPerson builds a CTA segment. Function defaults to IC (information
// contact).
func ContactPerson(name, function string) Segment {
	if function == "" {
		function = "IC"
	}
	return NewSegment("CTA", Value(function), Composite{"", name})
}

// Communication builds a COM segment for one of EM, TE or FX.
func Communication(value, channel string) (Segment, error) {
	if err := CheckAllowed(channel, ChannelMail, ChannelPhone, ChannelFax); err != nil {
		return Segment{}, err
	}
	return NewSegment("COM", Composite{value, channel}), nil
}

// Currency builds a CUX segment. Qualifier defaults to 4 (invoicing currency).
func Currency(code, qualifier string) Segment {
	if qualifier == "" {
		qualifier = "4"
	}
	return NewSegment("CUX", Composite{"2", code, qualifier})
}

func limitLines(lines []string, n int) []string {
	if len(lines) == 0 {
		return []string{""}
	}
	out := make([]string, 0, min(len(lines), n))
	for i, l := range lines {
		if i == n {
			break
		}
		out = append(out, l)
	}
	return out
}
