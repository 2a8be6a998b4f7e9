package course

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Certificate is issued once per user and course when the enrollment
// transitions to COMPLETED.
type Certificate struct {
	Base
	UserID            string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_certificate_user_course"`
	CourseID          string    `json:"course_id" gorm:"size:64;not null;uniqueIndex:idx_certificate_user_course"`
	EnrollmentID      string    `json:"enrollment_id" gorm:"size:64;index;not null"`
	CertificateNumber string    `json:"certificate_number" gorm:"size:32;unique"`
	IssuedAt          time.Time `json:"issued_at"`
}

func NewCertificateNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CERT-" + strings.ToUpper(id[:8])
}
