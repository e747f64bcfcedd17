package main

import "github.com/adanyl0v/go-taskdesk/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectStorage()
	defer app.DisconnectStorage()

	app.MustListenAndServeHTTP()
}
