package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursehub/apperr"
	"coursehub/logger"
	courseModels "coursehub/models/course"
)

func newTestStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(courseModels.All()...))
	return NewGormStore(db, logger.Nop()), db
}

func seedCourse(t *testing.T, db *gorm.DB) *courseModels.Course {
	t.Helper()
	maxAttempts := 2
	course := &courseModels.Course{
		Base:   courseModels.Base{ID: "c1"},
		Title:  "Go",
		Status: courseModels.CoursePublished,
		Modules: []courseModels.Module{
			{
				Base: courseModels.Base{ID: "m2"}, Order: 2, IsRequired: true,
				Topics: []courseModels.Topic{{Base: courseModels.Base{ID: "t3"}, CourseID: "c1", IsRequired: true}},
			},
			{
				Base: courseModels.Base{ID: "m1"}, Order: 1, IsRequired: true,
				Topics: []courseModels.Topic{
					{Base: courseModels.Base{ID: "t2"}, CourseID: "c1", OrderIndex: 2, IsRequired: true},
					{
						Base: courseModels.Base{ID: "t1"}, CourseID: "c1", OrderIndex: 1, IsRequired: true,
						TopicType: courseModels.TopicAssessment,
						Quiz: &courseModels.Quiz{
							Base: courseModels.Base{ID: "q1"}, PassingScore: 50, MaxAttempts: &maxAttempts,
							Questions: []courseModels.Question{{
								Base: courseModels.Base{ID: "qq1"}, QuestionType: courseModels.TrueFalse, Points: 1,
								Options: []courseModels.Option{
									{Base: courseModels.Base{ID: "opt-false"}, OrderIndex: 1},
									{Base: courseModels.Base{ID: "opt-true"}, IsCorrect: true},
								},
							}},
						},
					},
				},
			},
		},
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func TestLoadCourseOutlineOrdersChildren(t *testing.T) {
	store, db := newTestStore(t)
	seedCourse(t, db)

	c, err := store.LoadCourseOutline(context.Background(), nil, "c1")
	require.NoError(t, err)

	require.Len(t, c.Modules, 2)
	assert.Equal(t, "m1", c.Modules[0].ID)
	assert.Equal(t, []string{"t1", "t2"}, []string{c.Modules[0].Topics[0].ID, c.Modules[0].Topics[1].ID})
	require.NotNil(t, c.Modules[0].Topics[0].Quiz)
	assert.Equal(t, "q1", c.Modules[0].Topics[0].Quiz.ID)
	assert.True(t, c.Modules[0].IsRequired)

	_, err = store.LoadCourseOutline(context.Background(), nil, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestLoadQuizWithQuestions(t *testing.T) {
	store, db := newTestStore(t)
	seedCourse(t, db)

	quiz, questions, err := store.LoadQuizWithQuestions(context.Background(), nil, "q1")
	require.NoError(t, err)

	assert.Equal(t, 2, *quiz.MaxAttempts)
	require.Len(t, questions, 1)
	require.Len(t, questions[0].Options, 2)
	assert.Equal(t, "opt-true", questions[0].Options[0].ID)
}

func TestAttemptsAndBestScores(t *testing.T) {
	store, db := newTestStore(t)
	seedCourse(t, db)
	ctx := context.Background()
	done := time.Now()

	for _, a := range []courseModels.QuizAttempt{
		{UserID: "u1", QuizID: "q1", TopicID: "t1", CourseID: "c1", Score: 40, CompletedAt: &done},
		{UserID: "u1", QuizID: "q1", TopicID: "t1", CourseID: "c1", Score: 100, IsPractice: true, CompletedAt: &done},
		{UserID: "u1", QuizID: "q1", TopicID: "t1", CourseID: "c1", Score: 60, Passed: true, CompletedAt: &done,
			Answers: []courseModels.Answer{{QuestionID: "qq1", Values: []string{"opt-true"}, IsCorrect: true, PointsAwarded: 1}}},
		{UserID: "u2", QuizID: "q1", TopicID: "t1", CourseID: "c1", Score: 90, CompletedAt: &done},
	} {
		a := a
		require.NoError(t, store.SaveAttempt(ctx, nil, &a))
	}

	prior, err := store.LoadPriorAttempts(ctx, nil, "u1", "q1")
	require.NoError(t, err)
	assert.Len(t, prior, 3)

	best, err := store.BestScores(ctx, nil, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"t1": 60}, best)

	stored := prior[0]
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(store.SaveAttempt(ctx, nil, &stored)))
}

func TestEnrollmentConditionalCompletion(t *testing.T) {
	store, db := newTestStore(t)
	seedCourse(t, db)
	ctx := context.Background()

	_, err := store.LoadEnrollment(ctx, nil, "u1", "c1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	e := &courseModels.Enrollment{UserID: "u1", CourseID: "c1", Status: courseModels.EnrollmentActive, EnrolledAt: time.Now()}
	require.NoError(t, store.SaveEnrollment(ctx, nil, e))

	first, err := store.MarkEnrollmentCompleted(ctx, nil, e.ID, time.Now())
	require.NoError(t, err)
	second, err := store.MarkEnrollmentCompleted(ctx, nil, e.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	loaded, err := store.LoadEnrollment(ctx, nil, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentCompleted, loaded.Status)
	assert.NotNil(t, loaded.CompletedAt)
}

func TestTopicProgressUpsertAndConditionalComplete(t *testing.T) {
	store, db := newTestStore(t)
	seedCourse(t, db)
	ctx := context.Background()
	now := time.Now()

	row := &courseModels.TopicProgress{UserID: "u1", TopicID: "t2", ModuleID: "m1", CourseID: "c1", Status: courseModels.InProgress, StartedAt: &now}
	require.NoError(t, store.SaveTopicProgress(ctx, nil, row))
	again := &courseModels.TopicProgress{UserID: "u1", TopicID: "t2", ModuleID: "m1", CourseID: "c1", Status: courseModels.InProgress, Skipped: true, StartedAt: &now}
	require.NoError(t, store.SaveTopicProgress(ctx, nil, again))

	rows, err := store.LoadTopicProgress(ctx, nil, "u1", "c1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Skipped)

	changed, err := store.MarkTopicCompleted(ctx, nil, &courseModels.TopicProgress{UserID: "u1", TopicID: "t2", ModuleID: "m1", CourseID: "c1"}, now)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = store.MarkTopicCompleted(ctx, nil, &courseModels.TopicProgress{UserID: "u1", TopicID: "t2", ModuleID: "m1", CourseID: "c1"}, now)
	require.NoError(t, err)
	assert.False(t, changed)

	fresh := &courseModels.TopicProgress{UserID: "u1", TopicID: "t3", ModuleID: "m2", CourseID: "c1"}
	changed, err = store.MarkTopicCompleted(ctx, nil, fresh, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, courseModels.Completed, fresh.Status)
}

func TestTransactionRollsBack(t *testing.T) {
	store, db := newTestStore(t)
	seedCourse(t, db)
	ctx := context.Background()

	err := store.Transaction(ctx, func(tx *gorm.DB) error {
		e := &courseModels.Enrollment{UserID: "u9", CourseID: "c1", Status: courseModels.EnrollmentActive}
		require.NoError(t, store.SaveEnrollment(ctx, tx, e))
		return apperr.New(apperr.KindConflict, "abort")
	})
	require.Error(t, err)

	_, err = store.LoadEnrollment(ctx, nil, "u9", "c1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAuthoringUpdates(t *testing.T) {
	store, db := newTestStore(t)
	seedCourse(t, db)
	ctx := context.Background()

	prereq := "m1"
	require.NoError(t, store.SetModulePrerequisite(ctx, nil, "m2", &prereq))
	m, err := store.LoadModule(ctx, nil, "m2")
	require.NoError(t, err)
	require.NotNil(t, m.PrerequisiteModuleID)
	assert.Equal(t, "m1", *m.PrerequisiteModuleID)

	require.NoError(t, store.SetModulePrerequisite(ctx, nil, "m2", nil))
	m, err = store.LoadModule(ctx, nil, "m2")
	require.NoError(t, err)
	assert.Nil(t, m.PrerequisiteModuleID)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(store.SetTopicPrerequisite(ctx, nil, "ghost", nil)))
	require.NoError(t, store.SetCourseStatus(ctx, nil, "c1", courseModels.CourseArchived))
	c, err := store.LoadCourseOutline(ctx, nil, "c1")
	require.NoError(t, err)
	assert.Equal(t, courseModels.CourseArchived, c.Status)
}
