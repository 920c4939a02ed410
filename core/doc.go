// Package core contains the canonical client contracts, request and session
// types, the error taxonomy, and configuration loading. Transport and auth
// packages depend on core; core must not depend on them.
package core
