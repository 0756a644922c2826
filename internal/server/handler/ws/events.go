package ws

import "github.com/imorozov/wordquiz/internal/models"

// Inbound event names.
const (
	EventLogin              = "login"
	EventSignup             = "signup"
	EventVerification       = "verification"
	EventAddNewWord         = "addNewWord"
	EventAddWordsFromFile   = "addWordsFromFile"
	EventLatestVersionQuery = "sendLatestQuizSetVersion"
	EventQuizSetQuery       = "sendQuizSet"
	EventDisconnect         = "disconnect"
)

// Outbound event names.
const (
	EventLoginSuccess                 = "loginSuccess"
	EventLoginUnsuccessful            = "loginUnsuccessful"
	EventAdminPrivilegeGranted        = "adminPrivilegeGranted"
	EventSignupSuccess                = "signupSuccess"
	EventSignupUnsuccessful           = "signupUnsuccessful"
	EventVerificationSuccess          = "verificationSuccess"
	EventVerificationUnsuccessful     = "verificationUnsuccessful"
	EventAddWordSuccess               = "addWordSuccess"
	EventAddWordUnsuccessful          = "addWordUnsuccessful"
	EventAddWordsFromFileSuccess      = "addWordsFromFileSuccess"
	EventAddWordsFromFileUnsuccessful = "addWordsFromFileUnsuccessful"
	EventLatestQuizSetVersion         = "latestQuizSetVersion"
	EventLatestQuizSet                = "latestQuizSet"
)

// request is one inbound frame. All events share the flat shape; which
// fields are required depends on the event.
type request struct {
	Event          string `json:"event"`
	UserMail       string `json:"userMail"`
	Password       string `json:"password"`
	RememberMe     bool   `json:"rememberMe"`
	SessionID      string `json:"sessionId"`
	WebsiteURL     string `json:"websiteURL"`
	JWTToken       string `json:"jwtToken"`
	CollectionName string `json:"collectionName"`
	Word           string `json:"word"`
	Meaning        string `json:"meaning"`
	FileName       string `json:"fileName"`
}

// response is one outbound frame, addressed to the originating connection
// only. Reason is set on failure events where a reason is safe to report.
type response struct {
	Event          string                           `json:"event"`
	Reason         string                           `json:"reason,omitempty"`
	UserMail       string                           `json:"userMail,omitempty"`
	SessionID      string                           `json:"sessionId,omitempty"`
	CollectionName string                           `json:"collectionName,omitempty"`
	Word           string                           `json:"word,omitempty"`
	Meaning        string                           `json:"meaning,omitempty"`
	Count          int                              `json:"count,omitempty"`
	Version        string                           `json:"version,omitempty"`
	QuizSet        map[string]models.QuizCollection `json:"quizSet,omitempty"`
}
