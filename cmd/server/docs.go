// Package main Lab Portal API
//
//	@title						Lab Portal API
//	@version					1.0
//	@description				Project membership, invitations and task submissions for the lab portal.
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Membership
//	@tag.description			Joining, leaving and project rosters
//
//	@tag.name					Invitation
//	@tag.description			Project invitations
//
//	@tag.name					Submission
//	@tag.description			Task status, deliverables and the dashboard
package main
