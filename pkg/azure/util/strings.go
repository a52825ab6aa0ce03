package util

import (
	"fmt"
	"strings"

	"github.com/deploykit/azsp/pkg/azure"
)

func MapFiltersToFilter(filters []azure.Filter) azure.Filter {
	if len(filters) > 0 {
		return strings.Join(filters[:], " ")
	} else {
		return ""
	}
}

func FilterByName(name azure.DisplayName) azure.Filter {
	return fmt.Sprintf("displayName eq '%s'", name)
}

func FilterByAppId(clientId azure.ClientId) azure.Filter {
	return fmt.Sprintf("appId eq '%s'", clientId)
}

func FilterByRoleName(roleName string) azure.Filter {
	return fmt.Sprintf("roleName eq '%s'", roleName)
}
