// Package password is the credential verifier: Argon2id hashing and
// verification of principal secrets.
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// caller can re-hash after the next successful verification.
//
// # What this package must NOT do
//
//   - Store or retrieve hashes. Callers supply plaintext and receive hashes.
//   - Import any other package of this module.
//   - Log plaintext secrets.
package password
