// Package jobs runs scheduled background work for dispatch on
// github.com/robfig/cron/v3 with second-level schedules.
//
// AssignmentRetryJob picks up platform-delivered orders that are still
// waiting for a courier and runs courier assignment for each of them again.
// Orders whose assignment succeeded on placement never show up here.
//
// # Usage
//
//	retry := jobs.NewAssignmentRetryJob(assignableOrders, assignHandler, "*/30 * * * * *", 50, logger)
//	manager := jobs.NewJobManager(retry)
//	if err := manager.StartAll(); err != nil {
//		log.Fatalf("start jobs: %v", err)
//	}
//	defer manager.StopAll()
//
// # Error handling
//
// A failed assignment for one order is logged and the pass moves on. Finding
// no courier in range is a normal outcome and is not logged at all.
package jobs
