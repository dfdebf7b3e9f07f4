package registry

import (
	"fmt"
	"strings"
)

const (
	ownerTypeUserValueConstant         OwnerType = "user"
	ownerTypeOrganizationValueConstant OwnerType = "org"
	usersPathSegmentConstant                     = "users"
	organizationsPathSegmentConstant             = "orgs"
	ownerTypeEmptyErrorMessageConstant           = "owner type must be provided"
	ownerTypeInvalidTemplateConstant             = "owner type %q is not supported"
)

// OwnerType enumerates supported registry owner scopes.
type OwnerType string

// UserOwnerType identifies packages owned by an individual account.
const UserOwnerType OwnerType = ownerTypeUserValueConstant

// OrganizationOwnerType identifies packages owned by an organization.
const OrganizationOwnerType OwnerType = ownerTypeOrganizationValueConstant

// ParseOwnerType normalizes textual owner type values.
func ParseOwnerType(ownerTypeValue string) (OwnerType, error) {
	trimmedValue := strings.TrimSpace(ownerTypeValue)
	if len(trimmedValue) == 0 {
		return "", fmt.Errorf(ownerTypeEmptyErrorMessageConstant)
	}

	lowerCasedValue := strings.ToLower(trimmedValue)
	switch OwnerType(lowerCasedValue) {
	case UserOwnerType:
		return UserOwnerType, nil
	case OrganizationOwnerType:
		return OrganizationOwnerType, nil
	default:
		return "", fmt.Errorf(ownerTypeInvalidTemplateConstant, ownerTypeValue)
	}
}

// PathSegment resolves the REST API segment for the owner type.
func (ownerType OwnerType) PathSegment() string {
	switch ownerType {
	case OrganizationOwnerType:
		return organizationsPathSegmentConstant
	default:
		return usersPathSegmentConstant
	}
}
