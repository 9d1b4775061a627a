package core

// Organization identifies which of the two tracked entities a financial
// record belongs to.
type Organization string

const (
	OrgAlapitvany Organization = "alapitvany" // the foundation
	OrgOvoda      Organization = "ovoda"      // the kindergarten
)

var Organizations = []Organization{OrgAlapitvany, OrgOvoda}

func (o Organization) Valid() bool {
	return o == OrgAlapitvany || o == OrgOvoda
}
