// Package invitation implements the project invitation workflow.
//
// An invitation moves from pending to exactly one of accepted, rejected or
// expired. Accepting is a two-step protocol over two independent stores:
//
//  1. create the Membership through the membership domain;
//  2. resolve the invitation as accepted.
//
// The steps are not atomic. If step 2 fails, the Membership stands and the
// invitation is still pending. Every listing reconciles the pending invitations
// it returns: an invitee who is already on the project resolves the invitation
// as accepted, an invitee who now belongs to another project in the semester
// resolves it as expired, and so does an elapsed TTL.
package invitation
