package rpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// admin_freeze freezes an account.
func (s *Server) adminFreeze(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	addr, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}

	if err := dep.Token.Freeze(caller, addr); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_unfreeze unfreezes an account.
func (s *Server) adminUnfreeze(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	addr, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}

	if err := dep.Token.Unfreeze(caller, addr); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_wipeFrozen burns a frozen account's balance and returns the
// wiped amount.
func (s *Server) adminWipeFrozen(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	addr, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}

	wiped, err := dep.Token.WipeFrozen(caller, addr)
	if err != nil {
		return nil, rejection(err)
	}
	return hexutil.EncodeBig(wiped), nil
}

// admin_frozenAccounts lists the frozen accounts.
func (s *Server) adminFrozenAccounts(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	frozen := dep.Token.FrozenAccounts()
	addrs := make([]string, len(frozen))
	for i, addr := range frozen {
		addrs[i] = addr.Hex()
	}
	return addrs, nil
}

// admin_pause halts value movement.
func (s *Server) adminPause(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, caller]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}

	if err := dep.Token.Pause(caller); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_unpause resumes value movement.
func (s *Server) adminUnpause(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, caller]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}

	if err := dep.Token.Unpause(caller); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_grantRole grants a role to an address.
func (s *Server) adminGrantRole(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 4, "[chainId, caller, role, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	role, err := decodeRole(args[2])
	if err != nil {
		return nil, invalidParams(err.Error())
	}
	addr, err := decodeAddress(args[3])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}

	if err := dep.Token.GrantRole(caller, role, addr); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_revokeRole revokes a role from an address.
func (s *Server) adminRevokeRole(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 4, "[chainId, caller, role, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	role, err := decodeRole(args[2])
	if err != nil {
		return nil, invalidParams(err.Error())
	}
	addr, err := decodeAddress(args[3])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}

	if err := dep.Token.RevokeRole(caller, role, addr); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_roleMembers lists the holders of a role.
func (s *Server) adminRoleMembers(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, role]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	role, err := decodeRole(args[1])
	if err != nil {
		return nil, invalidParams(err.Error())
	}
	members := dep.Token.RoleMembers(role)
	addrs := make([]string, len(members))
	for i, addr := range members {
		addrs[i] = addr.Hex()
	}
	return addrs, nil
}

// admin_setRelayer moves the ISSUER grant to a new relayer.
func (s *Server) adminSetRelayer(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	next, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid relayer address")
	}

	if err := dep.Token.SetRelayer(caller, next); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_relayer returns the current relayer.
func (s *Server) adminRelayer(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return dep.Token.Relayer().Hex(), nil
}

// admin_cancelRedeem returns escrowed value to its owner.
func (s *Server) adminCancelRedeem(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, requestId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	requestID, err := decodeHash(args[2])
	if err != nil {
		return nil, invalidParams("Invalid request id")
	}

	if err := dep.Token.CancelRedeem(caller, requestID); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_setCap updates the reserve cap.
func (s *Server) adminSetCap(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, cap]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	cap, err := decodeBig(args[2])
	if err != nil {
		return nil, invalidParams("Invalid cap")
	}

	if err := dep.Reserve.SetCap(caller, cap); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_currentCap returns the reserve cap.
func (s *Server) adminCurrentCap(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	return hexutil.EncodeBig(dep.Reserve.CurrentCap()), nil
}

// admin_kycApprove adds an address to the allow-list.
func (s *Server) adminKYCApprove(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	addr, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}

	if err := dep.KYC.Approve(caller, addr); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_kycRevoke removes an address from the allow-list.
func (s *Server) adminKYCRevoke(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 3, "[chainId, caller, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	caller, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid caller address")
	}
	addr, err := decodeAddress(args[2])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}

	if err := dep.KYC.Revoke(caller, addr); err != nil {
		return nil, rejection(err)
	}
	return true, nil
}

// admin_kycList returns the allow-list.
func (s *Server) adminKYCList(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 1, "[chainId]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	approved := dep.KYC.Approved()
	addrs := make([]string, len(approved))
	for i, addr := range approved {
		addrs[i] = addr.Hex()
	}
	return addrs, nil
}

// admin_isKYCApproved reports whether an address is on the allow-list.
func (s *Server) adminIsKYCApproved(params json.RawMessage) (interface{}, *ErrorObject) {
	args, errObj := splitParams(params, 2, "[chainId, address]")
	if errObj != nil {
		return nil, errObj
	}
	dep, errObj := s.deployment(args[0])
	if errObj != nil {
		return nil, errObj
	}
	addr, err := decodeAddress(args[1])
	if err != nil {
		return nil, invalidParams("Invalid address")
	}
	return dep.KYC.IsApproved(addr), nil
}
