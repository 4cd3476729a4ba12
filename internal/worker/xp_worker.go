package worker

import (
	"github.com/darsni/backend/internal/events"
	"github.com/darsni/backend/internal/service"
)

// StartXPWorker subscribes the leaderboard to progress events.
func StartXPWorker(dispatcher events.Dispatcher, leaderboard *service.LeaderboardService) {
	if dispatcher == nil || leaderboard == nil {
		return
	}
	dispatcher.Subscribe(events.EventUnitCompleted, leaderboard.HandleUnitCompleted)
	dispatcher.Subscribe(events.EventCourseCompleted, leaderboard.HandleCourseCompleted)
}
