package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/smartclass/internal/model"
)

// Snapshot неизменяемый срез расписания, преподавателей и аудиторий на один тик
type Snapshot struct {
	Schedules  []*model.ClassSchedule
	Professors map[string]*model.Professor
	Classrooms map[string]*model.Classroom
}

// NewSnapshot копирует записи, чтобы изменения в источнике не влияли на текущий тик
func NewSnapshot(schedules []*model.ClassSchedule, professors []*model.Professor, classrooms []*model.Classroom) *Snapshot {
	snap := &Snapshot{
		Schedules:  make([]*model.ClassSchedule, 0, len(schedules)),
		Professors: make(map[string]*model.Professor, len(professors)),
		Classrooms: make(map[string]*model.Classroom, len(classrooms)),
	}
	for _, s := range schedules {
		c := *s
		snap.Schedules = append(snap.Schedules, &c)
	}
	for _, p := range professors {
		c := *p
		snap.Professors[p.ID] = &c
	}
	for _, r := range classrooms {
		c := *r
		snap.Classrooms[r.ID] = &c
	}
	return snap
}

// SnapshotSource отдаёт текущее состояние записей
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

type scheduleLister interface {
	ListAll(ctx context.Context) ([]*model.ClassSchedule, error)
}

type professorLister interface {
	ListAll(ctx context.Context) ([]*model.Professor, error)
}

type classroomLister interface {
	ListAll(ctx context.Context) ([]*model.Classroom, error)
}

// RepositorySnapshotSource читает снимок полным сканированием трёх таблиц
type RepositorySnapshotSource struct {
	schedules  scheduleLister
	professors professorLister
	classrooms classroomLister
}

func NewRepositorySnapshotSource(schedules scheduleLister, professors professorLister, classrooms classroomLister) *RepositorySnapshotSource {
	return &RepositorySnapshotSource{
		schedules:  schedules,
		professors: professors,
		classrooms: classrooms,
	}
}

func (s *RepositorySnapshotSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	schedules, err := s.schedules.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	professors, err := s.professors.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	classrooms, err := s.classrooms.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	return NewSnapshot(schedules, professors, classrooms), nil
}
