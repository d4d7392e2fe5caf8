package validation

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// InstitutionalEmailTag is the binding tag checked on sign-up emails
const InstitutionalEmailTag = "institutional_email"

// DomainPolicy decides whether an email address belongs to an allowed institution.
// A domain entry also admits its subdomains, so "leeds.ac.uk" accepts "student.leeds.ac.uk".
type DomainPolicy struct {
	domains []string
}

// NewDomainPolicy normalises the configured domains
func NewDomainPolicy(domains []string) *DomainPolicy {
	p := &DomainPolicy{}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(d), "@")))
		if d != "" {
			p.domains = append(p.domains, d)
		}
	}
	return p
}

// Allows reports whether email's domain matches the policy.
// An empty policy allows every address.
func (p *DomainPolicy) Allows(email string) bool {
	if len(p.domains) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(email[at+1:]))
	for _, d := range p.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Register installs the policy's rules on a validator instance
func (p *DomainPolicy) Register(v *validator.Validate) error {
	return v.RegisterValidation(InstitutionalEmailTag, func(fl validator.FieldLevel) bool {
		return p.Allows(fl.Field().String())
	})
}

// RegisterWithGin installs the policy on gin's default binding validator
func RegisterWithGin(p *DomainPolicy) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return p.Register(v)
}
