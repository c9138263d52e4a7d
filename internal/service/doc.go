// Package service contains the application-specific use cases and business
// logic. VideoService orchestrates submission of generation jobs to the
// configured provider and funnels every status report, whether pulled by a
// client poll or pushed by a provider webhook, through the task store's
// single Merge entrypoint.
//
// Services receive their dependencies through constructor injection and
// depend only on interfaces (generation.Provider, task.Store,
// events.EventEmitter), never on concrete infrastructure.
package service
