package api

// Student is the API's student profile.
type Student struct {
	ID           int    `json:"id"`
	FullName     string `json:"userFullName"`
	Nickname     string `json:"nickname"`
	Gender       string `json:"gender,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
	Age          int    `json:"age,omitempty"`
	Address      string `json:"address,omitempty"`
	Level        int    `json:"level,omitempty"`
	Point        int    `json:"point,omitempty"`
	Heart        int    `json:"heart,omitempty"`
}

// User is the account object returned alongside a token at login.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// AttendanceList statuses used by the API.
const (
	ListActive    = "active"
	ListClosed    = "closed"
	ListCompleted = "completed"
	ListCancelled = "cancelled"
	ListPending   = "pending"
)

// AttendanceList is one attendance session.
type AttendanceList struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Attendance record statuses.
const (
	RecordAttended = "attended"
	RecordAbsent   = "absent"
)

// AttendanceRecord is one student's row in an attendance list.
type AttendanceRecord struct {
	ID               int    `json:"id"`
	AttendanceListID int    `json:"attendance_list_id"`
	StudentID        int    `json:"student_id"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// VocabList is a named collection of vocabulary entries.
type VocabList struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	WordCount   int    `json:"word_count"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Vocab is a single vocabulary entry. CreatedBy is a student id, zero when unset.
type Vocab struct {
	ID              int    `json:"id"`
	Word            string `json:"word"`
	Translation     string `json:"translation"`
	Definition      string `json:"definition"`
	PartOfSpeech    string `json:"part_of_speech"`
	ExampleSentence string `json:"example_sentence"`
	Synonyms        string `json:"synonyms"`
	Antonyms        string `json:"antonyms"`
	CreatedBy       int    `json:"created_by"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// VocabInput is the body of vocab create and update calls.
type VocabInput struct {
	Word            string `json:"word"`
	Translation     string `json:"translation"`
	Definition      string `json:"definition"`
	PartOfSpeech    string `json:"part_of_speech"`
	ExampleSentence string `json:"example_sentence"`
	Synonyms        string `json:"synonyms"`
	Antonyms        string `json:"antonyms"`
}

// StudentUpdate is the body of a profile update.
type StudentUpdate struct {
	FullName     string `json:"userFullName"`
	Age          int    `json:"age"`
	Address      string `json:"address"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Credentials is the login body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register body.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"userFullName"`
	Gender   string `json:"gender"`
	Nickname string `json:"nickname"`
	Age      int    `json:"age"`
	Address  string `json:"address"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

// DictionaryEntry is the dictionary service's description of a word.
type DictionaryEntry struct {
	Word            string `json:"word"`
	Translation     string `json:"translation"`
	Definition      string `json:"definition"`
	PartOfSpeech    string `json:"part_of_speech"`
	ExampleSentence string `json:"example_sentence"`
	Synonyms        string `json:"synonyms"`
	Antonyms        string `json:"antonyms"`
}
