package content

// Field length limits, in characters.
const (
	MaxProjectTitle = 60
	MaxSlug         = 80

	MaxFullName = 60
	MaxHeadline = 80
	MaxLocation = 60
	MaxEmail    = 120
	MaxPhone    = 30
	MaxURL      = 160

	MaxAboutText = 500

	MaxProjectName        = 80
	MaxProjectDescription = 240
	MaxBulletLine         = 120
	MaxTag                = 24

	MaxRole        = 80
	MaxCompany     = 80
	MaxLegacyDate  = 30
	MaxDegree      = 80
	MaxField       = 80
	MaxInstitution = 100
	MaxGrade       = 20

	MaxCredentialTitle  = 80
	MaxCredentialIssuer = 80
	MaxNote             = 120

	MaxCTATitle  = 60
	MaxCTAText   = 180
	MaxLinkLabel = 30

	MaxSkillGroupName = 40
	MaxSkillItem      = 40
)

// List size limits.
const (
	MaxProjectBullets    = 6
	MaxProjectTags       = 8
	MaxExperienceBullets = 8
	MaxSkillItems        = 12
)

// MinYear is the earliest year accepted in any date field.
const MinYear = 1950

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
