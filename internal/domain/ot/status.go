package ot

import "trainerdesk/internal/domain"

// Counts summarises a member's assignment rows.
type Counts struct {
	Assigned  int
	Scheduled int
	Completed int
	Returned  int
}

func countAssignments(list []domain.OTAssignment) Counts {
	var c Counts
	for _, a := range list {
		switch a.Status {
		case domain.AssignmentAssigned:
			c.Assigned++
		case domain.AssignmentScheduled:
			c.Scheduled++
		case domain.AssignmentCompleted:
			c.Completed++
		case domain.AssignmentReturned:
			c.Returned++
		}
	}
	return c
}

// Remaining is the number of trial sessions not held by any trainer and not yet done.
func Remaining(sessions int, list []domain.OTAssignment) int {
	c := countAssignments(list)
	return max(0, sessions-c.Assigned-c.Scheduled-c.Completed)
}

// DeriveMemberStatus computes the member-level status from the assignment rows.
func DeriveMemberStatus(sessions int, list []domain.OTAssignment) domain.OTStatus {
	c := countAssignments(list)
	active := c.Assigned + c.Scheduled

	switch {
	case sessions > 0 && c.Completed >= sessions:
		return domain.OTCompleted
	case active == 0:
		return domain.OTUnassigned
	case c.Completed > 0:
		return domain.OTPartial
	case Remaining(sessions, list) == 0:
		return domain.OTAssigned
	default:
		return domain.OTPartial
	}
}

func nextSessionNumber(list []domain.OTAssignment) int {
	n := 0
	for _, a := range list {
		if a.SessionNumber > n {
			n = a.SessionNumber
		}
	}
	return n + 1
}
