// Package api serves the administrative call statistics endpoints:
//
//	GET    {base}/{ip}           all methods called by ip
//	GET    {base}/{ip}/{method}  one method called by ip
//	DELETE {base}/{ip}           forget all statistics of ip
//
// Missing statistics answer 404. Repository failures are logged and answered
// with an empty 500.
package api
