package prerequisite

import (
	"errors"

	"coursehub/apperr"
	courseModels "coursehub/models/course"
)

// Prerequisites form linear chains (each item names at most one prerequisite),
// so following the pointer with a visited set is enough to find a cycle.

func walkModuleChain(c *courseModels.Course, startID string) error {
	visited := map[string]bool{}
	id := startID
	for {
		if visited[id] {
			return apperr.Cycle("module prerequisite cycle through %s", id)
		}
		visited[id] = true
		m := c.FindModule(id)
		if m == nil || m.PrerequisiteModuleID == nil {
			return nil
		}
		id = *m.PrerequisiteModuleID
	}
}

func walkTopicChain(c *courseModels.Course, startID string) error {
	visited := map[string]bool{}
	id := startID
	for {
		if visited[id] {
			return apperr.Cycle("topic prerequisite cycle through %s", id)
		}
		visited[id] = true
		t := c.FindTopic(id)
		if t == nil || t.PrerequisiteTopicID == nil {
			return nil
		}
		id = *t.PrerequisiteTopicID
	}
}

// moduleAncestors returns the module IDs reachable through the prerequisite
// chain of moduleID, excluding moduleID itself.
func moduleAncestors(c *courseModels.Course, moduleID string) map[string]bool {
	out := map[string]bool{}
	m := c.FindModule(moduleID)
	for m != nil && m.PrerequisiteModuleID != nil {
		id := *m.PrerequisiteModuleID
		if out[id] || id == moduleID {
			break
		}
		out[id] = true
		m = c.FindModule(id)
	}
	return out
}

// ValidateModuleGraph checks every module prerequisite in the course.
func ValidateModuleGraph(c *courseModels.Course) error {
	var errs []error
	seenOrder := map[int]string{}
	for i := range c.Modules {
		m := &c.Modules[i]
		if m.Order < 1 {
			errs = append(errs, apperr.Invalid("module %s: order must be positive", m.ID))
		} else if other, dup := seenOrder[m.Order]; dup {
			errs = append(errs, apperr.Invalid("modules %s and %s share order %d", other, m.ID, m.Order))
		} else {
			seenOrder[m.Order] = m.ID
		}
		if m.PassingScore < 0 || m.PassingScore > 100 {
			errs = append(errs, apperr.Invalid("module %s: passing score %d outside 0-100", m.ID, m.PassingScore))
		}
		if m.UnlockDelay < 0 {
			errs = append(errs, apperr.Invalid("module %s: unlock delay must not be negative", m.ID))
		}
		if m.PrerequisiteModuleID == nil {
			continue
		}
		if c.FindModule(*m.PrerequisiteModuleID) == nil {
			errs = append(errs, apperr.Invalid("module %s: prerequisite %s is not in course %s", m.ID, *m.PrerequisiteModuleID, c.ID))
			continue
		}
		if err := walkModuleChain(c, m.ID); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// ValidateTopicGraph checks every topic prerequisite in the course. A topic may
// depend on a topic in its own module or in a module its module depends on.
func ValidateTopicGraph(c *courseModels.Course) error {
	var errs []error
	for i := range c.Modules {
		m := &c.Modules[i]
		ancestors := moduleAncestors(c, m.ID)
		for j := range m.Topics {
			t := &m.Topics[j]
			if t.PrerequisiteTopicID == nil {
				continue
			}
			prereq := c.FindTopic(*t.PrerequisiteTopicID)
			if prereq == nil {
				errs = append(errs, apperr.Invalid("topic %s: prerequisite %s is not in course %s", t.ID, *t.PrerequisiteTopicID, c.ID))
				continue
			}
			if prereq.ModuleID != m.ID && !ancestors[prereq.ModuleID] {
				errs = append(errs, apperr.Invalid("topic %s: prerequisite %s belongs to module %s which does not precede %s", t.ID, prereq.ID, prereq.ModuleID, m.ID))
				continue
			}
			if err := walkTopicChain(c, t.ID); err != nil {
				return err
			}
		}
	}
	return errors.Join(errs...)
}

// ValidatePublishable is the gate for moving a course to PUBLISHED.
func ValidatePublishable(c *courseModels.Course) error {
	if len(c.Modules) == 0 {
		return apperr.Invalid("course %s has no modules", c.ID)
	}
	for i := range c.Modules {
		if len(c.Modules[i].Topics) == 0 {
			return apperr.Invalid("module %s has no topics", c.Modules[i].ID)
		}
	}
	if err := ValidateModuleGraph(c); err != nil {
		return err
	}
	return ValidateTopicGraph(c)
}

// CheckModulePrerequisite validates setting (or clearing, with nil) the
// prerequisite of a module before it is persisted. The course is not modified.
func CheckModulePrerequisite(c *courseModels.Course, moduleID string, prereqID *string) error {
	m := c.FindModule(moduleID)
	if m == nil {
		return apperr.NotFound("module %s not in course %s", moduleID, c.ID)
	}
	if prereqID != nil && *prereqID == moduleID {
		return apperr.Cycle("module %s cannot depend on itself", moduleID)
	}

	previous := m.PrerequisiteModuleID
	m.PrerequisiteModuleID = prereqID
	defer func() { m.PrerequisiteModuleID = previous }()

	if prereqID != nil && c.FindModule(*prereqID) == nil {
		return apperr.Invalid("module %s: prerequisite %s is not in course %s", moduleID, *prereqID, c.ID)
	}
	if err := walkModuleChain(c, moduleID); err != nil {
		return err
	}
	// Re-pointing a module can strand topic prerequisites that relied on the
	// old chain.
	return ValidateTopicGraph(c)
}

// CheckTopicPrerequisite is the topic counterpart of CheckModulePrerequisite.
func CheckTopicPrerequisite(c *courseModels.Course, topicID string, prereqID *string) error {
	t := c.FindTopic(topicID)
	if t == nil {
		return apperr.NotFound("topic %s not in course %s", topicID, c.ID)
	}
	if prereqID != nil && *prereqID == topicID {
		return apperr.Cycle("topic %s cannot depend on itself", topicID)
	}

	previous := t.PrerequisiteTopicID
	t.PrerequisiteTopicID = prereqID
	defer func() { t.PrerequisiteTopicID = previous }()

	if prereqID == nil {
		return nil
	}
	prereq := c.FindTopic(*prereqID)
	if prereq == nil {
		return apperr.Invalid("topic %s: prerequisite %s is not in course %s", topicID, *prereqID, c.ID)
	}
	if prereq.ModuleID != t.ModuleID && !moduleAncestors(c, t.ModuleID)[prereq.ModuleID] {
		return apperr.Invalid("topic %s: prerequisite %s belongs to module %s which does not precede %s", topicID, prereq.ID, prereq.ModuleID, t.ModuleID)
	}
	return walkTopicChain(c, topicID)
}
