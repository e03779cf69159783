// Package main promptreel API
//
//	@title						promptreel API
//	@version					1.0
//	@description				Structured prompt catalog and Veo video generation service
//
//	@contact.name				promptreel maintainers
//
//	@license.name				Proprietary
//
//	@host						localhost:8080
//	@BasePath					/api
//
//	@tag.name					Videos
//	@tag.description			Video generation tasks and downloads
//
//	@tag.name					Prompts
//	@tag.description			Structured prompt translation
//
//	@tag.name					Catalog
//	@tag.description			Stored prompts and LLM variations (tRPC-style)
//
//	@tag.name					Admin
//	@tag.description			Provider health
package main
