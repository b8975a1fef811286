package smtp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lokario/backoffice/internal/enum"
)

func TestEndpointForAddressKnownProviders(t *testing.T) {
	tests := []struct {
		address  string
		server   string
		port     int
		security enum.EmailSecurity
	}{
		{"artisan@gmail.com", "smtp.gmail.com", 465, enum.EmailSecuritySSL},
		{"contact@outlook.com", "smtp-mail.outlook.com", 587, enum.EmailSecurityStartTLS},
		{"atelier@orange.fr", "smtp.orange.fr", 465, enum.EmailSecuritySSL},
		{"pro@free.fr", "smtp.free.fr", 587, enum.EmailSecurityStartTLS},
		{"compta@ovh.com", "ssl0.ovh.net", 465, enum.EmailSecuritySSL},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			endpoint := EndpointForAddress(tt.address)
			assert.Equal(t, tt.server, endpoint.Server)
			assert.Equal(t, tt.port, endpoint.Port)
			assert.Equal(t, tt.security, endpoint.Security)
		})
	}
}

func TestEndpointForAddressIsCaseInsensitive(t *testing.T) {
	endpoint := EndpointForAddress("Contact@GMAIL.com")
	assert.Equal(t, "smtp.gmail.com", endpoint.Server)
}

func TestEndpointForAddressUnknownDomainFallsBack(t *testing.T) {
	endpoint := EndpointForAddress("contact@menuiserie-dupont.fr")
	assert.Equal(t, "smtp.menuiserie-dupont.fr", endpoint.Server)
	assert.Equal(t, 587, endpoint.Port)
	assert.Equal(t, enum.EmailSecurityStartTLS, endpoint.Security)
}

func TestEndpointForAddressHandlesDisplayName(t *testing.T) {
	endpoint := EndpointForAddress("Jean Dupont <jean@yahoo.fr>")
	assert.Equal(t, "smtp.mail.yahoo.com", endpoint.Server)
}
