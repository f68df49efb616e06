// Package docs provides generated OpenAPI documentation.
//
// Timetable API
//
//	@title			Timetable API
//	@version		1.0
//	@description	Turns pasted or uploaded school timetables into structured day/period/class schedules.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/timetable
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/timetable/serve.go -o ./swagger --parseDependency --parseInternal
