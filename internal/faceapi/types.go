package faceapi

import "time"

// BoundingBox is the face rectangle as fractions of the image size
type BoundingBox struct {
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
}

// Pose is the head orientation in degrees
type Pose struct {
	Roll  float64 `json:"Roll"`
	Yaw   float64 `json:"Yaw"`
	Pitch float64 `json:"Pitch"`
}

// Quality holds image quality signals for a detected face
type Quality struct {
	Brightness float64 `json:"Brightness"`
	Sharpness  float64 `json:"Sharpness"`
}

// AgeRange is the estimated age interval
type AgeRange struct {
	Low  int `json:"Low"`
	High int `json:"High"`
}

// Emotion is a single emotion estimate
type Emotion struct {
	Type       string  `json:"Type"`
	Confidence float64 `json:"Confidence"`
}

// FaceCandidate is one face found by the detect endpoint.
// Confidence is a percentage in [0,100].
type FaceCandidate struct {
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Landmarks   int         `json:"landmarks"`
	Pose        Pose        `json:"pose"`
	Quality     Quality     `json:"quality"`
	AgeRange    AgeRange    `json:"age_range"`
	Smile       bool        `json:"smile"`
	Emotions    []Emotion   `json:"emotions"`
}

// DetectionOutcome is the result of one detect call
type DetectionOutcome struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	FacesDetected   int             `json:"faces_detected"`
	Faces           []FaceCandidate `json:"faces"`
	Recommendations []string        `json:"recommendations"`
}

// HasFace reports whether at least one face was detected
func (d *DetectionOutcome) HasFace() bool {
	return d != nil && d.FacesDetected > 0
}

// TopConfidence returns the confidence of the first face, or 0 when there is none
func (d *DetectionOutcome) TopConfidence() float64 {
	if d == nil || len(d.Faces) == 0 {
		return 0
	}
	return d.Faces[0].Confidence
}

// EnrollFields are the identity attributes submitted with an enrollment
type EnrollFields struct {
	IDNumber  string
	FullName  string
	Gender    string
	BirthDate string
	Address   string
}

// Image is a binary image payload for multipart submissions
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EnrollmentResult is returned by a successful enroll call
type EnrollmentResult struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	UserID      int64     `json:"user_id"`
	FaceID      string    `json:"face_id"`
	SubmittedAt time.Time `json:"-"`
}

// UserRecord is an enrolled user as returned by the backend, plus display-only
// fields derived on the client.
type UserRecord struct {
	ID               int64  `json:"id"`
	IDNumber         string `json:"cccd_number,omitempty"`
	FullName         string `json:"full_name,omitempty"`
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	Department       string `json:"department,omitempty"`
	Gender           string `json:"gender,omitempty"`
	BirthDate        string `json:"birth_date,omitempty"`
	PermanentAddress string `json:"permanent_address,omitempty"`
	ImageURL         string `json:"image_url,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`

	// Derived on the client, never sent by the backend
	EmployeeID     string `json:"employee_id,omitempty"`
	EnrollmentDate string `json:"enrollment_date,omitempty"`
	Status         string `json:"status,omitempty"`
}

// DisplayName prefers the CCCD full name and falls back to the directory name
func (u *UserRecord) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Name
}

type usersResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Users   []UserRecord `json:"users"`
}

type userResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    UserRecord `json:"user"`
}

// Confirmation is the generic {success, message} response
type Confirmation struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
