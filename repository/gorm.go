package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coursehub/apperr"
	"coursehub/logger"
	courseModels "coursehub/models/course"
)

type gormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return &gormStore{db: db, log: baseLog.With("repo", "GormStore")}
}

func (s *gormStore) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return transaction.WithContext(ctx)
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindNotFound, err, format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func (s *gormStore) LoadCourseOutline(ctx context.Context, tx *gorm.DB, courseID string) (*courseModels.Course, error) {
	var course courseModels.Course
	err := s.conn(ctx, tx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Modules.Topics", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC, id ASC") }).
		Preload("Modules.Topics.Quiz").
		Where("id = ?", courseID).
		First(&course).Error
	if err != nil {
		return nil, notFound(err, "load course %s", courseID)
	}
	return &course, nil
}

func (s *gormStore) LoadModule(ctx context.Context, tx *gorm.DB, moduleID string) (*courseModels.Module, error) {
	var module courseModels.Module
	if err := s.conn(ctx, tx).Where("id = ?", moduleID).First(&module).Error; err != nil {
		return nil, notFound(err, "load module %s", moduleID)
	}
	return &module, nil
}

func (s *gormStore) LoadTopic(ctx context.Context, tx *gorm.DB, topicID string) (*courseModels.Topic, error) {
	var topic courseModels.Topic
	if err := s.conn(ctx, tx).Preload("Quiz").Where("id = ?", topicID).First(&topic).Error; err != nil {
		return nil, notFound(err, "load topic %s", topicID)
	}
	return &topic, nil
}

func (s *gormStore) LoadQuizWithQuestions(ctx context.Context, tx *gorm.DB, quizID string) (*courseModels.Quiz, []courseModels.Question, error) {
	var quiz courseModels.Quiz
	err := s.conn(ctx, tx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC, id ASC") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC, id ASC") }).
		Where("id = ?", quizID).
		First(&quiz).Error
	if err != nil {
		return nil, nil, notFound(err, "load quiz %s", quizID)
	}
	return &quiz, quiz.Questions, nil
}

func (s *gormStore) LoadPriorAttempts(ctx context.Context, tx *gorm.DB, userID, quizID string) ([]courseModels.QuizAttempt, error) {
	var attempts []courseModels.QuizAttempt
	err := s.conn(ctx, tx).
		Preload("Answers").
		Where("user_id = ? AND quiz_id = ? AND completed_at IS NOT NULL", userID, quizID).
		Order("started_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("load attempts %s/%s: %w", userID, quizID, err)
	}
	return attempts, nil
}

// SaveAttempt only ever inserts. A completed attempt is never rewritten.
func (s *gormStore) SaveAttempt(ctx context.Context, tx *gorm.DB, attempt *courseModels.QuizAttempt) error {
	if attempt.ID != "" {
		return apperr.New(apperr.KindConflict, "attempt %s is already stored", attempt.ID)
	}
	if err := s.conn(ctx, tx).Create(attempt).Error; err != nil {
		return fmt.Errorf("save attempt for %s/%s: %w", attempt.UserID, attempt.QuizID, err)
	}
	return nil
}

func (s *gormStore) BestScores(ctx context.Context, tx *gorm.DB, userID, courseID string) (map[string]int, error) {
	var rows []struct {
		TopicID string
		Best    int
	}
	err := s.conn(ctx, tx).
		Model(&courseModels.QuizAttempt{}).
		Select("topic_id, MAX(score) AS best").
		Where("user_id = ? AND course_id = ? AND is_practice = ? AND completed_at IS NOT NULL", userID, courseID, false).
		Group("topic_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("best scores %s/%s: %w", userID, courseID, err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.TopicID] = r.Best
	}
	return out, nil
}

func (s *gormStore) LoadEnrollment(ctx context.Context, tx *gorm.DB, userID, courseID string) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := s.conn(ctx, tx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, notFound(err, "load enrollment %s/%s", userID, courseID)
	}
	return &enrollment, nil
}

func (s *gormStore) SaveEnrollment(ctx context.Context, tx *gorm.DB, enrollment *courseModels.Enrollment) error {
	db := s.conn(ctx, tx)
	var err error
	if enrollment.ID == "" {
		err = db.Create(enrollment).Error
	} else {
		err = db.Save(enrollment).Error
	}
	if err != nil {
		return fmt.Errorf("save enrollment %s/%s: %w", enrollment.UserID, enrollment.CourseID, err)
	}
	return nil
}

func (s *gormStore) MarkEnrollmentCompleted(ctx context.Context, tx *gorm.DB, enrollmentID string, at time.Time) (bool, error) {
	res := s.conn(ctx, tx).
		Model(&courseModels.Enrollment{}).
		Where("id = ? AND status <> ?", enrollmentID, courseModels.EnrollmentCompleted).
		Updates(map[string]interface{}{
			"status":       courseModels.EnrollmentCompleted,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("complete enrollment %s: %w", enrollmentID, res.Error)
	}
	if res.RowsAffected == 0 {
		s.log.Debug("enrollment already completed", "enrollmentID", enrollmentID)
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) ListEnrollmentsAccessedSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]courseModels.Enrollment, error) {
	var enrollments []courseModels.Enrollment
	err := s.conn(ctx, tx).
		Where("last_access_at >= ? AND status IN ?", since,
			[]courseModels.EnrollmentStatus{courseModels.EnrollmentActive, courseModels.EnrollmentCompleted}).
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("list enrollments since %s: %w", since.Format(time.RFC3339), err)
	}
	return enrollments, nil
}

func (s *gormStore) LoadTopicProgress(ctx context.Context, tx *gorm.DB, userID, courseID string) ([]courseModels.TopicProgress, error) {
	var rows []courseModels.TopicProgress
	if err := s.conn(ctx, tx).Where("user_id = ? AND course_id = ?", userID, courseID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load topic progress %s/%s: %w", userID, courseID, err)
	}
	return rows, nil
}

func (s *gormStore) LoadModuleProgress(ctx context.Context, tx *gorm.DB, userID, courseID string) ([]courseModels.ModuleProgress, error) {
	var rows []courseModels.ModuleProgress
	if err := s.conn(ctx, tx).Where("user_id = ? AND course_id = ?", userID, courseID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load module progress %s/%s: %w", userID, courseID, err)
	}
	return rows, nil
}

// SaveTopicProgress upserts by the unique (user, topic) pair.
func (s *gormStore) SaveTopicProgress(ctx context.Context, tx *gorm.DB, row *courseModels.TopicProgress) error {
	err := s.conn(ctx, tx).
		Where("user_id = ? AND topic_id = ?", row.UserID, row.TopicID).
		Assign(map[string]interface{}{
			"module_id":    row.ModuleID,
			"course_id":    row.CourseID,
			"status":       row.Status,
			"skipped":      row.Skipped,
			"started_at":   row.StartedAt,
			"completed_at": row.CompletedAt,
		}).
		FirstOrCreate(row).Error
	if err != nil {
		return fmt.Errorf("save topic progress %s/%s: %w", row.UserID, row.TopicID, err)
	}
	return nil
}

func (s *gormStore) MarkTopicCompleted(ctx context.Context, tx *gorm.DB, row *courseModels.TopicProgress, at time.Time) (bool, error) {
	db := s.conn(ctx, tx)
	err := db.
		Where("user_id = ? AND topic_id = ?", row.UserID, row.TopicID).
		Attrs(courseModels.TopicProgress{
			ModuleID:  row.ModuleID,
			CourseID:  row.CourseID,
			Status:    courseModels.NotStarted,
			StartedAt: &at,
		}).
		FirstOrCreate(row).Error
	if err != nil {
		return false, fmt.Errorf("load topic progress %s/%s: %w", row.UserID, row.TopicID, err)
	}

	res := db.Model(&courseModels.TopicProgress{}).
		Where("id = ? AND status <> ?", row.ID, courseModels.Completed).
		Updates(map[string]interface{}{
			"status":       courseModels.Completed,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("complete topic %s/%s: %w", row.UserID, row.TopicID, res.Error)
	}
	if res.RowsAffected == 1 {
		row.Status = courseModels.Completed
		row.CompletedAt = &at
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) SaveModuleProgress(ctx context.Context, tx *gorm.DB, row *courseModels.ModuleProgress) error {
	err := s.conn(ctx, tx).
		Where("user_id = ? AND module_id = ?", row.UserID, row.ModuleID).
		Assign(map[string]interface{}{
			"course_id":    row.CourseID,
			"status":       row.Status,
			"percent":      row.Percent,
			"completed_at": row.CompletedAt,
		}).
		FirstOrCreate(row).Error
	if err != nil {
		return fmt.Errorf("save module progress %s/%s: %w", row.UserID, row.ModuleID, err)
	}
	return nil
}

func (s *gormStore) CreateCertificate(ctx context.Context, tx *gorm.DB, cert *courseModels.Certificate) error {
	if err := s.conn(ctx, tx).Create(cert).Error; err != nil {
		return fmt.Errorf("issue certificate %s/%s: %w", cert.UserID, cert.CourseID, err)
	}
	return nil
}

func (s *gormStore) LoadCertificate(ctx context.Context, tx *gorm.DB, userID, courseID string) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	if err := s.conn(ctx, tx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error; err != nil {
		return nil, notFound(err, "load certificate %s/%s", userID, courseID)
	}
	return &cert, nil
}

func (s *gormStore) SetCourseStatus(ctx context.Context, tx *gorm.DB, courseID string, status courseModels.CourseStatus) error {
	res := s.conn(ctx, tx).Model(&courseModels.Course{}).Where("id = ?", courseID).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("set course %s status: %w", courseID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("course %s not found", courseID)
	}
	return nil
}

func (s *gormStore) SetModulePrerequisite(ctx context.Context, tx *gorm.DB, moduleID string, prereqID *string) error {
	res := s.conn(ctx, tx).Model(&courseModels.Module{}).Where("id = ?", moduleID).Update("prerequisite_module_id", prereqID)
	if res.Error != nil {
		return fmt.Errorf("set module %s prerequisite: %w", moduleID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("module %s not found", moduleID)
	}
	return nil
}

func (s *gormStore) SetTopicPrerequisite(ctx context.Context, tx *gorm.DB, topicID string, prereqID *string) error {
	res := s.conn(ctx, tx).Model(&courseModels.Topic{}).Where("id = ?", topicID).Update("prerequisite_topic_id", prereqID)
	if res.Error != nil {
		return fmt.Errorf("set topic %s prerequisite: %w", topicID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("topic %s not found", topicID)
	}
	return nil
}
