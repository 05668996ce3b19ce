package backend

// LoginRequest is the body of the login exchange
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of the signup exchange
type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what a successful login exchange yields
type LoginResult struct {
	Token string      `json:"token" validate:"required"`
	User  AccountUser `json:"user"`
}

type AccountUser struct {
	ID               any    `json:"id,omitempty"`
	FullName         string `json:"fullName,omitempty"`
	Email            string `json:"email,omitempty"`
	ProfileCompleted bool   `json:"profileCompleted"`
}

// Academic is step 1 of the onboarding profile
type Academic struct {
	EducationLevel string `json:"educationLevel"`
	Degree         string `json:"degree"`
	Major          string `json:"major"`
	University     string `json:"university"`
	GraduationYear string `json:"graduationYear"`
	GPA            string `json:"gpa"`
	Specialization string `json:"specialization"`
}

// Goals is step 2 of the onboarding profile
type Goals struct {
	TargetDegree    string   `json:"targetDegree"`
	FieldOfInterest string   `json:"fieldOfInterest"`
	Specialization  string   `json:"specialization"`
	IntakeYear      string   `json:"intakeYear"`
	IntakeSeason    string   `json:"intakeSeason"`
	Countries       []string `json:"countries"`
	PreferredCities string   `json:"preferredCities"`
}

// Budget is step 3 of the onboarding profile. Amounts travel as strings.
type Budget struct {
	Min                 string `json:"min"`
	Max                 string `json:"max"`
	FundingSource       string `json:"fundingSource"`
	ScholarshipInterest bool   `json:"scholarshipInterest"`
	Currency            string `json:"currency"`
}

// Exams is step 4 of the onboarding profile
type Exams struct {
	IELTSScore   string `json:"ieltsScore"`
	TOEFLScore   string `json:"toeflScore"`
	GREScore     string `json:"greScore"`
	GMATScore    string `json:"gmatScore"`
	ExamStatus   string `json:"examStatus"`
	SOPStatus    string `json:"sopStatus"`
	LORStatus    string `json:"lorStatus"`
	ResumeStatus string `json:"resumeStatus"`
}

// Profile is the stored onboarding profile as returned by the profile fetch.
// Every section is optional on read.
type Profile struct {
	Academic        *Academic `json:"academic,omitempty"`
	Goal            *Goals    `json:"goal,omitempty"`
	Budget          *Budget   `json:"budget,omitempty"`
	Exams           *Exams    `json:"exams,omitempty"`
	ProfileComplete bool      `json:"profile_complete"`
}

// ProfileSubmission is the body of the profile save. The backend expects the
// goals section under the singular key "goal".
type ProfileSubmission struct {
	Academic        Academic `json:"academic"`
	Goal            Goals    `json:"goal"`
	Budget          Budget   `json:"budget"`
	Exams           Exams    `json:"exams"`
	ProfileComplete bool     `json:"profile_complete"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// ShortlistItem is one saved university
type ShortlistItem struct {
	ID             int64  `json:"id" validate:"required"`
	UniversityName string `json:"universityName" validate:"required"`
	UniversityID   string `json:"universityId"`
	Location       string `json:"location"`
	Category       string `json:"category"`
	Course         string `json:"course,omitempty"`
	IsLocked       bool   `json:"isLocked"`
}

// ShortlistRequest adds a university to the shortlist
type ShortlistRequest struct {
	UniversityName string `json:"universityName" validate:"required"`
	UniversityID   string `json:"universityId" validate:"required"`
	Location       string `json:"location"`
	Category       string `json:"category"`
	Course         string `json:"course,omitempty"`
}

// Task is one application checklist item
type Task struct {
	ID             int64  `json:"id"`
	Title          string `json:"title" validate:"required"`
	Description    string `json:"description"`
	Done           bool   `json:"done"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Deadline       string `json:"deadline"`
	TimeEstimate   string `json:"timeEstimate"`
	UniversityName string `json:"universityName,omitempty"`
}

// ChatRequest sends one user message with the profile as context
type ChatRequest struct {
	Message string   `json:"message" validate:"required"`
	Profile *Profile `json:"profile"`
}

// Actions the counsellor may report having taken on the user's behalf
const (
	ActionShortlist = "SHORTLIST"
	ActionLock      = "LOCK"
)

// ChatReply is the counsellor's answer
type ChatReply struct {
	Reply       string `json:"reply" validate:"required"`
	ActionTaken string `json:"actionTaken,omitempty"`
}
