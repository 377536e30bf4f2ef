package service

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// TranslationServiceFile is the proto file that declares
// TranslationServiceName. It is registered with protoregistry.GlobalFiles
// so server reflection can describe the service.
const TranslationServiceFile = "tripglot/v1/translation.proto"

// TranslationServiceDescriptor is the registered descriptor of
// TranslationServiceName.
var TranslationServiceDescriptor protoreflect.ServiceDescriptor

func init() {
	sd, err := registerServiceDescriptor()
	if err != nil {
		panic(fmt.Sprintf("register %s: %v", TranslationServiceFile, err))
	}
	TranslationServiceDescriptor = sd
}

func registerServiceDescriptor() (protoreflect.ServiceDescriptor, error) {
	structFile := (&structpb.Struct{}).ProtoReflect().Descriptor().ParentFile()
	structType := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())

	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(TranslationServiceDesc.Methods))
	for _, m := range TranslationServiceDesc.Methods {
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.MethodName),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		})
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(TranslationServiceFile),
		Package:    proto.String("tripglot.v1"),
		Dependency: []string{structFile.Path()},
		Syntax:     proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/dasmlab/tripglot/pkg/service"),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("TranslationService"),
			Method: methods,
		}},
	}

	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		return nil, err
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		return nil, err
	}
	return fd.Services().ByName("TranslationService"), nil
}
