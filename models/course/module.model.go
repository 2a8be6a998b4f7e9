package course

// Module represents a section/module within a course
type Module struct {
	Base
	CourseID             string  `json:"course_id" gorm:"size:64;index;not null;uniqueIndex:idx_module_course_order"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	Order                int     `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_module_course_order"` // positive, unique within course
	PrerequisiteModuleID *string `json:"prerequisite_module_id" gorm:"size:64"`
	IsRequired           bool    `json:"is_required" gorm:"not null"`
	PassingScore         int     `json:"passing_score" gorm:"default:0"` // 0-100, gates a module-level assessment only
	UnlockDelay          int     `json:"unlock_delay" gorm:"default:0"`  // hours after prerequisite completion
	Topics               []Topic `json:"topics,omitempty" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

// Assessment returns the module-level assessment topic (an ASSESSMENT topic
// carrying a quiz), if the module has one.
func (m *Module) Assessment() *Topic {
	for i := range m.Topics {
		if m.Topics[i].TopicType == TopicAssessment && m.Topics[i].Quiz != nil {
			return &m.Topics[i]
		}
	}
	return nil
}
