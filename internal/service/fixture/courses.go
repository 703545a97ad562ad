package fixture

import (
	"context"
	"strings"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
)

type courses struct{ b *Backend }

// courseViewLocked fills the derived class count.
func (b *Backend) courseViewLocked(c *model.Course) model.Course {
	out := *c
	out.TotalClasses = 0
	for _, cl := range b.classes {
		if cl.CourseID == c.ID {
			out.TotalClasses++
		}
	}
	return out
}

func (s courses) filter(ctx context.Context, keep func(*model.Course) bool) ([]model.Course, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, anyone); err != nil {
		return nil, err
	}
	out := sortedValues(b.courses, keep)
	for i := range out {
		out[i] = b.courseViewLocked(&out[i])
	}
	return out, nil
}

func (s courses) List(ctx context.Context) ([]model.Course, error) {
	return s.filter(ctx, nil)
}

func (s courses) ListActive(ctx context.Context) ([]model.Course, error) {
	return s.filter(ctx, func(c *model.Course) bool { return c.Active })
}

func (s courses) Search(ctx context.Context, query string) ([]model.Course, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filter(ctx, func(c *model.Course) bool {
		return q == "" || contains(c.Code, q) || contains(c.Name, q) || contains(c.Description, q)
	})
}

func (s courses) Get(ctx context.Context, id int64) (*model.Course, error) {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, err := b.callerLocked(ctx, anyone); err != nil {
		return nil, err
	}
	c, ok := b.courses[id]
	if !ok {
		return nil, apierr.NotFound("course", id)
	}
	out := b.courseViewLocked(c)
	return &out, nil
}

func (s courses) Create(ctx context.Context, in model.CourseInput) (*model.Course, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	if err := b.uniqueCourseLocked(0, in.Code); err != nil {
		return nil, err
	}

	c := &model.Course{ID: b.allocID("course"), Active: true}
	applyCourse(c, in)
	b.courses[c.ID] = c
	out := b.courseViewLocked(c)
	return &out, nil
}

func (s courses) Update(ctx context.Context, id int64, in model.CourseInput) (*model.Course, error) {
	ctx = s.b.authenticate(ctx)
	if err := check(in); err != nil {
		return nil, err
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return nil, err
	}
	c, ok := b.courses[id]
	if !ok {
		return nil, apierr.NotFound("course", id)
	}
	if err := b.uniqueCourseLocked(id, in.Code); err != nil {
		return nil, err
	}

	applyCourse(c, in)
	out := b.courseViewLocked(c)
	return &out, nil
}

func (s courses) Delete(ctx context.Context, id int64) error {
	b := s.b
	ctx = b.authenticate(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.callerLocked(ctx, adminOnly); err != nil {
		return err
	}
	if _, ok := b.courses[id]; !ok {
		return apierr.NotFound("course", id)
	}
	for _, cl := range b.classes {
		if cl.CourseID == id {
			return coded(response.ErrDependencyExists, "Course still has classes.")
		}
	}
	delete(b.courses, id)
	return nil
}

func applyCourse(c *model.Course, in model.CourseInput) {
	c.Code = in.Code
	c.Name = in.Name
	c.Description = in.Description
	c.Price = in.Price
	c.DurationHours = in.DurationHours
	c.Level = in.Level
	if in.Active != nil {
		c.Active = *in.Active
	}
}

func (b *Backend) uniqueCourseLocked(self int64, code string) error {
	for _, c := range b.courses {
		if c.ID != self && strings.EqualFold(c.Code, code) {
			e := apierr.Conflict("Course code already exists.")
			e.Fields = map[string]string{"code": "code already exists"}
			return e
		}
	}
	return nil
}
