package domain

// Well-known remote properties.
const (
	PropInstanceOf      Property = "P31"
	PropCountry         Property = "P17"
	PropAdminRegion     Property = "P131"
	PropOperator        Property = "P137"
	PropInception       Property = "P571"
	PropIUCNCategory    Property = "P814"
	PropCoordinate      Property = "P625"
	PropGeoshape        Property = "P3896"
	PropArea            Property = "P2046"
	PropAppliesToPart   Property = "P518"
	PropPointInTime     Property = "P585"
	PropNVRID           Property = "P3613"
	PropWDPAID          Property = "P809"
	PropReferenceURL    Property = "P854"
	PropStatedIn        Property = "P248"
	PropRetrieved       Property = "P813"
	PropPublicationDate Property = "P577"
)

// Well-known remote entities.
const (
	EntitySweden            = "Q34"
	EntityHectare           = "Q35852"
	EntityLand              = "Q11081619"
	EntityForest            = "Q4421"
	EntityBodyOfWater       = "Q15324"
	EntityProtectedAreas    = "Q29580583"
	EntityEarth             = "Q2"
	EntityNatureReserve     = "Q179049"
	EntityNationalPark      = "Q46169"
	EntityNaturalMonument   = "Q23790"
	EntityGregorianCalendar = "Q1985727"
)

// IUCNCategories maps dataset protection-category codes to remote
// entities. The empty string marks the deliberate "no value" category.
var IUCNCategories = map[string]string{
	"0":   "",
	"IA":  "Q14545608",
	"IB":  "Q14545620",
	"II":  "Q14545628",
	"III": "Q14545633",
	"IV":  "Q14545639",
	"V":   "Q14545646",
}

// AreaVariant is one of the area facts broken out by an applies-to-part
// qualifier.
type AreaVariant struct {
	// Name is used in ledger claim lists.
	Name string

	// Attribute is the dataset attribute holding the hectare value.
	Attribute string

	// Part is the applies-to-part entity. Empty for the total area,
	// which carries no qualifier.
	Part string
}

// AreaVariants lists the four area facts in reconciliation order.
var AreaVariants = []AreaVariant{
	{Name: "area", Attribute: "AREA_HA"},
	{Name: "area land", Attribute: "LAND_HA", Part: EntityLand},
	{Name: "area forest", Attribute: "SKOG_HA", Part: EntityForest},
	{Name: "area body of water", Attribute: "VATTEN_HA", Part: EntityBodyOfWater},
}
