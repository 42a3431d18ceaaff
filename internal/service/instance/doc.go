// Package instance keeps a single sentinel per machine.
//
// Two sentinels would fight over the camera and ring two alarms, so a new
// process either refuses to start or, on request, terminates the old one.
package instance
