/*
Package authsdk provides a client SDK for the murmur JSON API.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: unauthenticated operations (health, registration) and token issue
  - Session: operations that need a bearer token

Create an SDKClient to interact with public endpoints and obtain a Session:

	client := authsdk.NewSDKClient("https://murmur.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Register a new user
	user, err := client.RegisterUser(ctx, authsdk.CreateUserRequest{...})

	// Exchange a username and password for an API token
	session, err := client.AuthenticateWithPassword(ctx, username, password)

Use a Session for authenticated operations:

	users, err := session.ListUsers(ctx, 1, 10)
	me, err := session.GetUser(ctx, id)
	followers, err := session.Followers(ctx, id, 1, 10)

	// Revoke the token once done. The Session is unusable afterwards.
	err = session.Revoke(ctx)

# Errors

Every non-success response is returned as an *APIError carrying the status
code and the server's {"error", "message"} body. Use errors.As or the
IsStatus helper to branch on it.

# Wire types

The request and response types in this package are the ones the server
encodes, so they double as the API's documented models.
*/
package authsdk
