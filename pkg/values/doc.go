// Package values provides validated value objects for common user input:
// email addresses, IP addresses, passwords and user agents.
//
// Constructors validate and return an error wrapping the package sentinel
// on bad input. Values are immutable; With* methods return copies.
//
//	email, err := values.ParseEmail("john+news@example.com")
//	alias, _ := email.Alias() // "news"
//	plain := email.WithAlias("") // john@example.com
//
//	ip, err := values.IPFromRequest(r)
//
//	pw := values.NewPassword(form.Password)
//	if err := pw.IsStrong(ctx, pwned.New()); err != nil {
//	    var weak *values.WeakPasswordError
//	    if errors.As(err, &weak) {
//	        // show weak.Reason to the user
//	    }
//	}
//	hash, err := pw.Hash(0)
package values
