// Package progress derives the dashboard's journey stage and profile strength
// from backend data.
package progress

import (
	"fmt"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/utils"
)

type Stage int

const (
	StageBuildingProfile Stage = iota + 1
	StageDiscovering
	StageFinalizing
	StagePreparing

	stages = int(StagePreparing)
)

func (s Stage) Title() string {
	switch s {
	case StageBuildingProfile:
		return "Building Profile"
	case StageDiscovering:
		return "Discovering Universities"
	case StageFinalizing:
		return "Finalizing Universities"
	}
	return "Preparing Applications"
}

func (s Stage) Description() string {
	switch s {
	case StageBuildingProfile:
		return "Set up your academic profile and preferences"
	case StageDiscovering:
		return "Find universities matching your profile"
	case StageFinalizing:
		return "Narrow down your final university choices"
	}
	return "Prepare and submit applications"
}

// Percent is the width of the stage progress bar
func (s Stage) Percent() int {
	return int(s) * 100 / stages
}

func (s Stage) String() string {
	return fmt.Sprintf("stage %d (%s)", int(s), s.Title())
}

// AllStages lists the stages in order
func AllStages() []Stage {
	return []Stage{StageBuildingProfile, StageDiscovering, StageFinalizing, StagePreparing}
}

// StageFor places the user on the journey: any locked university means
// applications are being prepared, any saved one means discovery is under way.
func StageFor(shortlist []backend.ShortlistItem) Stage {
	for _, it := range shortlist {
		if it.IsLocked {
			return StagePreparing
		}
	}
	if len(shortlist) > 0 {
		return StageDiscovering
	}
	return StageBuildingProfile
}

// Strength is the per-area profile strength, each 0..100
type Strength struct {
	Academics int
	Exams     int
	SOP       int
}

// StrengthFor scores a fetched profile. A nil profile (fetch failed) scores zero.
func StrengthFor(p *backend.Profile) Strength {
	if p == nil {
		return Strength{}
	}
	s := Strength{Academics: 85, Exams: 40, SOP: 20}
	exams := utils.Value(p.Exams)
	if exams.ExamStatus == "completed" {
		s.Exams = 100
	}
	if exams.SOPStatus == "finalized" {
		s.SOP = 100
	}
	return s
}

// Overall is the rounded mean of the three areas
func (s Strength) Overall() int {
	return (s.Academics + s.Exams + s.SOP + 1) / 3
}
