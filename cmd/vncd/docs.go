package main

// General API documentation for swaggo. Build with -tags=swagger to serve it.
//
// @title           vncd API
// @version         1.0
// @description     Supervisor and websocket tunnel for a browser-accessible virtual desktop.
//
// @contact.name   vncd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
