package main

import (
	"os"

	offlinecache "github.com/offline-cache/offline-cache"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Generation  offlinecache.Generation `yaml:"generation"`
	APIPrefixes []string                `yaml:"apiPrefixes"`
	Precache    []string                `yaml:"precache"`
	OfflinePath string                  `yaml:"offlinePath"`
	RootPath    string                  `yaml:"rootPath"`
	Tasks       taskConfig              `yaml:"tasks"`
}

type taskConfig struct {
	SyncEndpoint string `yaml:"syncEndpoint"`
	WeatherPath  string `yaml:"weatherPath"`
	Schedule     string `yaml:"schedule"`
}

func defaultConfig() fileConfig {
	return fileConfig{
		Generation: offlinecache.Generation{
			Main: "main-v1",
			API:  "api-v1",
			Sync: "sync-v1",
		},
		APIPrefixes: []string{"/api/"},
		Precache:    []string{"/", "/offline.html"},
		OfflinePath: "/offline.html",
		RootPath:    "/",
		Tasks: taskConfig{
			SyncEndpoint: "/api/v1/notes",
			WeatherPath:  "/api/v1/locations",
			Schedule:     "@hourly",
		},
	}
}

func getConfig(filename string) (fileConfig, error) {
	config := defaultConfig()
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
